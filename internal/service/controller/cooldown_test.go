package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/plantguard/internal/config"
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

func cooldownConfig() *config.CooldownConfig {
	return &config.CooldownConfig{
		WetWindow:       time.Hour,
		ForceStopWindow: time.Hour,
		MotionWindow:    15 * time.Minute,
	}
}

func warmProbe() ProbeReading {
	return ProbeReading{Configured: true, OK: true, TemperatureC: 20}
}

// TestInhibitionWindowBoundaries verifies each recency predicate holds for
// the full window and releases right after: true at window-1ms, false at
// window+1ms.
func TestInhibitionWindowBoundaries(t *testing.T) {
	t.Parallel()

	cfg := cooldownConfig()
	triggeredAt := domain.Timestamp(1_000_000)

	cases := []struct {
		name    string
		cd      domain.Cooldowns
		window  time.Duration
		blocked func(Inhibition) bool
	}{
		{
			name:    "wet",
			cd:      domain.Cooldowns{LastWetAt: triggeredAt, WasWet: true},
			window:  cfg.WetWindow,
			blocked: func(i Inhibition) bool { return i.WetRecently },
		},
		{
			name:    "force stop",
			cd:      domain.Cooldowns{ForceStopAt: triggeredAt, WasForceStopped: true},
			window:  cfg.ForceStopWindow,
			blocked: func(i Inhibition) bool { return i.ForceStoppedRecently },
		},
		{
			name:    "motion",
			cd:      domain.Cooldowns{MotionAt: triggeredAt, WasMotionStopped: true},
			window:  cfg.MotionWindow,
			blocked: func(i Inhibition) bool { return i.MotionStoppedRecently },
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			inside := triggeredAt.Add(tc.window - time.Millisecond)
			outside := triggeredAt.Add(tc.window + time.Millisecond)

			got := EvaluateInhibition(cfg, &tc.cd, inside, time.June, warmProbe())
			require.True(t, tc.blocked(got))
			require.True(t, got.Any())

			got = EvaluateInhibition(cfg, &tc.cd, outside, time.June, warmProbe())
			require.False(t, tc.blocked(got))
			require.False(t, got.Any())
		})
	}
}

// TestInhibitionNeverTriggered ensures a zero timestamp with a clear flag
// reads as "never", not "at the device epoch".
func TestInhibitionNeverTriggered(t *testing.T) {
	t.Parallel()

	var cd domain.Cooldowns

	got := EvaluateInhibition(cooldownConfig(), &cd, domain.Timestamp(1), time.June, warmProbe())
	require.False(t, got.Any())
}

// TestInhibitionSeasonalBlock covers plain and year-wrapping season ranges.
func TestInhibitionSeasonalBlock(t *testing.T) {
	t.Parallel()

	var cd domain.Cooldowns

	cfg := cooldownConfig()
	cfg.SeasonStartMonth = 4
	cfg.SeasonEndMonth = 9

	require.False(t, EvaluateInhibition(cfg, &cd, 1, time.June, warmProbe()).SeasonBlocked)
	require.True(t, EvaluateInhibition(cfg, &cd, 1, time.December, warmProbe()).SeasonBlocked)

	// Wrapping range: October through March.
	cfg.SeasonStartMonth = 10
	cfg.SeasonEndMonth = 3

	require.False(t, EvaluateInhibition(cfg, &cd, 1, time.December, warmProbe()).SeasonBlocked)
	require.False(t, EvaluateInhibition(cfg, &cd, 1, time.February, warmProbe()).SeasonBlocked)
	require.True(t, EvaluateInhibition(cfg, &cd, 1, time.June, warmProbe()).SeasonBlocked)
}

// TestInhibitionTemperatureBlock covers cold soil, failed probes and
// probe-less deployments.
func TestInhibitionTemperatureBlock(t *testing.T) {
	t.Parallel()

	var cd domain.Cooldowns

	cfg := cooldownConfig()
	cfg.MinPumpTempC = 3

	// Cold soil blocks.
	probe := ProbeReading{Configured: true, OK: true, TemperatureC: 1}
	require.True(t, EvaluateInhibition(cfg, &cd, 1, time.June, probe).TemperatureBlocked)

	// Failed probe blocks conservatively.
	probe = ProbeReading{Configured: true, OK: false}
	require.True(t, EvaluateInhibition(cfg, &cd, 1, time.June, probe).TemperatureBlocked)

	// No probe wired: never blocks.
	probe = ProbeReading{}
	require.False(t, EvaluateInhibition(cfg, &cd, 1, time.June, probe).TemperatureBlocked)

	// Warm enough.
	probe = ProbeReading{Configured: true, OK: true, TemperatureC: 10}
	require.False(t, EvaluateInhibition(cfg, &cd, 1, time.June, probe).TemperatureBlocked)
}

// TestInhibitionInterlock verifies the heater subset: only force-stop and
// motion gate the frost protection.
func TestInhibitionInterlock(t *testing.T) {
	t.Parallel()

	i := Inhibition{WetRecently: true, SeasonBlocked: true, TemperatureBlocked: true}
	require.True(t, i.Any())
	require.False(t, i.Interlock())

	i = Inhibition{ForceStoppedRecently: true}
	require.True(t, i.Interlock())

	i = Inhibition{MotionStoppedRecently: true}
	require.True(t, i.Interlock())
}
