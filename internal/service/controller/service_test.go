package controller

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/plantguard/internal/clock"
	"github.com/verdantlabs/plantguard/internal/config"
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
	"github.com/verdantlabs/plantguard/internal/hardware/gpio"
	"github.com/verdantlabs/plantguard/internal/repository/record"
	"github.com/verdantlabs/plantguard/internal/telemetry/mqtt"
)

// fakeTime is a controllable tick + absolute source pair; the absolute
// clock can be skewed independently to model tick drift.
type fakeTime struct {
	elapsed time.Duration
	base    time.Time
	skew    time.Duration
}

func newFakeTime() *fakeTime {
	// Noon, well away from a day boundary.
	return &fakeTime{base: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeTime) ticks() time.Duration { return f.elapsed }

func (f *fakeTime) absolute() time.Time { return f.base.Add(f.elapsed + f.skew) }

func drySample() domain.SensorSample {
	return domain.SensorSample{MoisturePercent: 20, TemperatureC: 18, TemperatureOK: true}
}

// testEnv wires a controller with fakes everywhere. The pump runs 50 s per
// activation (50 ml at 100 ml/100 s) and idles 70 s between runs.
type testEnv struct {
	ctx       context.Context
	ft        *fakeTime
	clk       *clock.EpochClock
	store     *record.Store
	sensors   *gpio.FakeSensors
	outputs   *gpio.FakeOutputs
	buttons   *gpio.FakeButtons
	telemetry *mqtt.FakePublisher
	ctrl      *Controller
	cfg       *config.Config
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		StateFile: filepath.Join(t.TempDir(), "record.bin"),
		Pump: config.PumpConfig{
			RateMLPer100s:            100,
			PortionML:                50,
			Period:                   2 * time.Minute,
			MoistureThresholdPercent: 60,
		},
	}

	if mutate != nil {
		mutate(cfg)
	}

	require.NoError(t, config.Validate(cfg))

	e := &testEnv{
		ctx:       context.Background(),
		ft:        newFakeTime(),
		sensors:   gpio.NewFakeSensors(drySample()),
		outputs:   &gpio.FakeOutputs{},
		buttons:   &gpio.FakeButtons{},
		telemetry: mqtt.NewFakePublisher(),
		cfg:       cfg,
	}

	e.clk = clock.New(e.ft.ticks, e.ft.absolute, cfg.ResyncInterval)
	e.store = record.NewStore(record.NewFileStorage(cfg.StateFile))

	now := e.clk.Now()

	rec, err := e.store.Load(e.ctx, now, clock.Day(now))
	require.NoError(t, err)

	e.ctrl = New(cfg, e.clk, e.store, rec, e.sensors, e.outputs, e.buttons, e.telemetry)

	return e
}

// cycle advances time by step and runs one control cycle.
func (e *testEnv) cycle(step time.Duration) {
	e.ft.elapsed += step
	e.ctrl.Cycle(e.ctx)
}

// run advances n cycles of the given step.
func (e *testEnv) run(n int, step time.Duration) {
	for i := 0; i < n; i++ {
		e.cycle(step)
	}
}

// TestCycleFullPumpRun is the reference scenario: the pump starts once the
// idle window and all cooldowns clear, runs the full on-duration, stops,
// and slot 0 holds the configured portion exactly.
func TestCycleFullPumpRun(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)

	// Idle window is 70 s; one cycle past it the pump starts.
	e.run(71, time.Second)
	require.True(t, e.outputs.Pump)
	require.True(t, e.ctrl.Record().Pump.Running)

	// The full on-duration elapses without a stop.
	e.run(50, time.Second)
	require.True(t, e.outputs.Pump)

	// One millisecond past the on-duration: stop and account 50 ml.
	e.cycle(time.Millisecond)
	require.False(t, e.outputs.Pump)

	rec := e.ctrl.Record()
	require.False(t, rec.Pump.Running)
	require.Equal(t, uint32(50), rec.PumpStats.Slots[0])
	require.Equal(t, uint32(50), rec.PumpStats.Total)

	// Transition events made it to telemetry.
	require.Len(t, e.telemetry.Events, 2)
	require.Equal(t, "start", e.telemetry.Events[0].Action)
	require.Equal(t, "stop", e.telemetry.Events[1].Action)
	require.Equal(t, uint32(50), e.telemetry.Events[1].Delta)

	// The stop was checkpointed synchronously.
	loaded, err := e.store.Load(e.ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, rec, loaded)
}

// TestCycleForceStopInterruptsRun fires ForceStop mid-active: the pump
// must go Idle in the same cycle even though its on-duration has not
// elapsed, and stay inhibited for the force-stop window.
func TestCycleForceStopInterruptsRun(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)

	e.run(71, time.Second)
	require.True(t, e.outputs.Pump)

	e.run(9, time.Second)

	e.buttons.Push(domain.Command{Type: domain.CommandForceStop})
	e.cycle(time.Second)

	require.False(t, e.outputs.Pump)

	rec := e.ctrl.Record()
	require.False(t, rec.Pump.Running)
	require.Equal(t, uint32(10), rec.PumpStats.Slots[0], "10 s at 100 ml/100 s")
	require.True(t, rec.Cooldowns.WasForceStopped)

	last := e.telemetry.Events[len(e.telemetry.Events)-1]
	require.Equal(t, "forced_stop", last.Action)

	// The next idle expiry is still inside the force-stop window, so the
	// pump must not restart.
	e.run(75, time.Second)
	require.False(t, e.ctrl.Record().Pump.Running)
}

// TestCycleDayRolloverIdempotent crosses midnight once and verifies the
// statistics shift exactly once for the new day value.
func TestCycleDayRolloverIdempotent(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)

	// Keep the pump quiet: a wet plant blocks the trigger and the
	// statistics stay untouched by actuation.
	e.sensors.Samples[0].WaterLevel = true

	e.ctrl.rec.PumpStats.Slots[0] = 5
	e.ctrl.rec.PumpStats.Total = 5

	// Noon to one hour past midnight: exactly one rollover.
	e.run(13, time.Hour)

	rec := e.ctrl.Record()
	require.Equal(t, uint8(11), rec.StatsDay)
	require.Zero(t, rec.PumpStats.Slots[0])
	require.Equal(t, uint32(5), rec.PumpStats.Slots[1])

	// More cycles on the same day must not double-shift.
	e.run(5, time.Minute)

	rec = e.ctrl.Record()
	require.Zero(t, rec.PumpStats.Slots[0])
	require.Equal(t, uint32(5), rec.PumpStats.Slots[1])
	require.Zero(t, rec.PumpStats.Slots[2])
	require.Equal(t, uint32(5), rec.PumpStats.Total)
}

// TestCycleCorrectionDeferredWhileActive skews the absolute clock during a
// pump run: the correction must wait until the actuator is idle again.
func TestCycleCorrectionDeferredWhileActive(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, func(cfg *config.Config) {
		cfg.ResyncInterval = 30 * time.Second
	})

	e.run(71, time.Second)
	require.True(t, e.ctrl.Record().Pump.Running)

	e.ft.skew = 5 * time.Second
	before := e.ctrl.Record().LastCorrectionAt

	// Correction comes due while the pump runs and must be deferred.
	e.run(40, time.Second)
	require.True(t, e.ctrl.Record().Pump.Running)
	require.Equal(t, before, e.ctrl.Record().LastCorrectionAt)

	// Stop, then the next cycle applies the correction atomically.
	e.run(10, time.Second)
	e.cycle(time.Millisecond)
	require.False(t, e.ctrl.Record().Pump.Running)

	e.cycle(time.Second)

	rec := e.ctrl.Record()
	require.NotEqual(t, before, rec.LastCorrectionAt)
	require.Equal(t, clock.ToTimestamp(e.ft.absolute()), rec.LastCorrectionAt)
}

// TestCycleForceRunOverride verifies the manual override: the output is
// asserted directly, the state machine's bookkeeping stays untouched, and
// release reverts the output to what Running dictates.
func TestCycleForceRunOverride(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)

	before := e.ctrl.Record()

	e.buttons.Push(domain.Command{Type: domain.CommandForceRun, On: true})
	e.cycle(time.Second)

	require.True(t, e.outputs.Pump)

	rec := e.ctrl.Record()
	require.False(t, rec.Pump.Running)
	require.Equal(t, before.Pump.StartedAt, rec.Pump.StartedAt)
	require.Zero(t, rec.PumpStats.Total)

	e.buttons.Push(domain.Command{Type: domain.CommandForceRun, On: false})
	e.cycle(time.Second)

	require.False(t, e.outputs.Pump)
}

// TestCycleSensorFaultKeepsActuatorsOff substitutes conservative readings
// on a sensor surface failure: neither actuator starts and the status
// snapshot carries the alarm.
func TestCycleSensorFaultKeepsActuatorsOff(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, func(cfg *config.Config) {
		cfg.Heater.Enabled = true
		cfg.Heater.OnDuration = 10 * time.Second
		cfg.Heater.IdleDuration = 20 * time.Second
		cfg.Heater.SetPointC = 3
		cfg.GPIO.TemperaturePath = "/sys/bus/w1/devices/28-0/w1_slave"
	})

	e.sensors.ReadError = context.DeadlineExceeded

	// Both idle windows expire with no start.
	e.run(80, time.Second)

	require.False(t, e.outputs.Pump)
	require.False(t, e.outputs.Heater)
	require.False(t, e.ctrl.Record().Pump.Running)
	require.False(t, e.ctrl.Record().Heater.Running)

	require.NotEmpty(t, e.telemetry.Statuses)
	require.True(t, e.telemetry.Statuses[0].SensorFault)
}

// TestCycleHeaterFrostProtection runs the heater below the set point and
// verifies seasonal and wet blocks do not gate it.
func TestCycleHeaterFrostProtection(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, func(cfg *config.Config) {
		cfg.Heater.Enabled = true
		cfg.Heater.OnDuration = 10 * time.Second
		cfg.Heater.IdleDuration = 20 * time.Second
		cfg.Heater.SetPointC = 3
		// Watering season excludes March; frost protection must not care.
		cfg.Cooldowns.SeasonStartMonth = 5
		cfg.Cooldowns.SeasonEndMonth = 9
	})

	e.sensors.Samples[0].TemperatureC = -2
	e.sensors.Samples[0].WaterLevel = true

	e.run(21, time.Second)

	require.True(t, e.outputs.Heater)
	require.False(t, e.outputs.Pump, "pump stays blocked out of season and wet")

	// Full on-duration, then stop with on-time accounted in seconds.
	e.run(10, time.Second)
	e.cycle(time.Millisecond)

	rec := e.ctrl.Record()
	require.False(t, rec.Heater.Running)
	require.Equal(t, uint32(10), rec.HeaterStats.Slots[0])
}

// TestCycleWetLatchBlocksPump wets the plant once and verifies the pump
// holds off for the wet window even after the plant reads dry again.
func TestCycleWetLatchBlocksPump(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)

	e.sensors.Samples[0].WaterLevel = true
	e.cycle(time.Second)

	e.sensors.Samples[0].WaterLevel = false

	// Idle expiry falls well inside the one-hour wet window.
	e.run(75, time.Second)
	require.False(t, e.ctrl.Record().Pump.Running)

	// Past the wet window the pump is free to start again.
	e.run(3_570, time.Second)
	require.True(t, e.ctrl.Record().Pump.Running)
}

// TestCycleRemoteDisplayMode feeds a remote command through telemetry and
// checks the mode change is persisted.
func TestCycleRemoteDisplayMode(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)

	e.telemetry.Remote(domain.Command{Type: domain.CommandChangeDisplayMode})
	e.cycle(time.Second)

	require.Equal(t, domain.DisplayHistory, e.ctrl.Record().Mode)

	loaded, err := e.store.Load(e.ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, domain.DisplayHistory, loaded.Mode)
}

// TestCycleContainerRefill zeroes the lifetime total but keeps per-day
// history.
func TestCycleContainerRefill(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)

	e.ctrl.rec.PumpStats.Slots[0] = 120
	e.ctrl.rec.PumpStats.Total = 4_000

	e.buttons.Push(domain.Command{Type: domain.CommandResetContainerTotal})
	e.cycle(time.Second)

	rec := e.ctrl.Record()
	require.Zero(t, rec.PumpStats.Total)
	require.Equal(t, uint32(120), rec.PumpStats.Slots[0])
}

// TestCycleResetStatistics zeroes every slot and counter for both
// actuators.
func TestCycleResetStatistics(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)

	e.ctrl.rec.PumpStats.Slots[0] = 9
	e.ctrl.rec.PumpStats.Slots[3] = 10
	e.ctrl.rec.PumpStats.Total = 19
	e.ctrl.rec.HeaterStats.Slots[0] = 2
	e.ctrl.rec.HeaterStats.Total = 2

	e.buttons.Push(domain.Command{Type: domain.CommandResetStatistics})
	e.cycle(time.Second)

	rec := e.ctrl.Record()
	require.Zero(t, rec.PumpStats.Total)
	require.Zero(t, rec.HeaterStats.Total)

	for i := range rec.PumpStats.Slots {
		require.Zero(t, rec.PumpStats.Slots[i])
		require.Zero(t, rec.HeaterStats.Slots[i])
	}
}
