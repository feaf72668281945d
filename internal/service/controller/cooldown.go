package controller

import (
	"time"

	"github.com/verdantlabs/plantguard/internal/config"
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// Inhibition is the per-reason breakdown of the composite cannot-start
// predicate. Keeping the reasons separate lets telemetry report why the
// controller is holding back.
type Inhibition struct {
	// WetRecently is true within the wet window after the float switch
	// last reported a wet plant.
	WetRecently bool
	// ForceStoppedRecently is true within the force-stop window after an
	// operator force-stop.
	ForceStoppedRecently bool
	// MotionStoppedRecently is true within the motion window after motion
	// was last detected.
	MotionStoppedRecently bool
	// SeasonBlocked is true outside the configured watering season.
	SeasonBlocked bool
	// TemperatureBlocked is true when the soil is too cold to water, or
	// when the probe has failed and the conservative reading applies.
	TemperatureBlocked bool
}

// Any reports the composite predicate: the pump cannot start.
func (i Inhibition) Any() bool {
	return i.WetRecently || i.ForceStoppedRecently || i.MotionStoppedRecently ||
		i.SeasonBlocked || i.TemperatureBlocked
}

// Interlock reports the subset that also gates the heater: operator
// force-stop and recent motion. Seasonal and cold-soil blocks must not
// keep the frost protection from running.
func (i Inhibition) Interlock() bool {
	return i.ForceStoppedRecently || i.MotionStoppedRecently
}

// EvaluateInhibition computes the inhibition state for this cycle. It is
// evaluated fresh every cycle, never cached, so it reflects clock
// corrections applied in the same cycle.
// Deployments without a soil probe never temperature-block; with a probe,
// a failed reading blocks conservatively.
func EvaluateInhibition(
	cfg *config.CooldownConfig,
	cd *domain.Cooldowns,
	now domain.Timestamp,
	month time.Month,
	probe ProbeReading,
) Inhibition {
	return Inhibition{
		WetRecently:           recently(cd.WasWet, cd.LastWetAt, now, cfg.WetWindow),
		ForceStoppedRecently:  recently(cd.WasForceStopped, cd.ForceStopAt, now, cfg.ForceStopWindow),
		MotionStoppedRecently: recently(cd.WasMotionStopped, cd.MotionAt, now, cfg.MotionWindow),
		SeasonBlocked:         seasonBlocked(cfg, month),
		TemperatureBlocked:    probe.Configured && (!probe.OK || probe.TemperatureC < cfg.MinPumpTempC),
	}
}

// ProbeReading is the soil probe's contribution to the inhibition policy.
type ProbeReading struct {
	// Configured is true when a probe is wired at all.
	Configured bool
	// OK is false when the configured probe reports its failure sentinel.
	OK bool
	// TemperatureC is the reading, meaningful only when OK.
	TemperatureC float64
}

// recently implements the shared predicate shape: the event has fired at
// least once and less than window ago.
func recently(ever bool, at, now domain.Timestamp, window time.Duration) bool {
	return ever && now.Since(at) < window
}

// seasonBlocked is true outside the inclusive start..end month range.
// The range may wrap the year end; both months zero disables the block.
func seasonBlocked(cfg *config.CooldownConfig, month time.Month) bool {
	if cfg.SeasonStartMonth == 0 && cfg.SeasonEndMonth == 0 {
		return false
	}

	m := uint8(month)

	if cfg.SeasonStartMonth <= cfg.SeasonEndMonth {
		return m < cfg.SeasonStartMonth || m > cfg.SeasonEndMonth
	}

	return m < cfg.SeasonStartMonth && m > cfg.SeasonEndMonth
}
