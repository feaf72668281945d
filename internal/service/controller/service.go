package controller

import (
	"context"

	"github.com/verdantlabs/plantguard/internal/clock"
	"github.com/verdantlabs/plantguard/internal/config"
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
	"github.com/verdantlabs/plantguard/internal/hardware/gpio"
	"github.com/verdantlabs/plantguard/internal/logger"
	"github.com/verdantlabs/plantguard/internal/repository/record"
	"github.com/verdantlabs/plantguard/internal/telemetry/mqtt"
)

// Controller owns all mutable core state and runs the control cycle. It is
// single-threaded by construction: only Cycle mutates the record, and the
// hardware and telemetry collaborators feed it read-only inputs.
type Controller struct {
	cfg   *config.Config
	clk   *clock.EpochClock
	store *record.Store
	rec   *domain.Record

	sensors   gpio.Sensors
	outputs   gpio.Outputs
	buttons   gpio.Buttons
	telemetry mqtt.Publisher

	pump   *Actuator
	heater *Actuator

	// forceRun mirrors the manual override. It drives the pump output
	// directly and bypasses the state machine's bookkeeping.
	forceRun bool

	// sensorFault is the alarm indicator for substituted readings.
	sensorFault bool

	// pumpOut and heaterOut cache the last asserted output values so the
	// hardware is only touched on change.
	pumpOut   bool
	heaterOut bool

	lastStatusAt domain.Timestamp
}

// New assembles a controller over an already-loaded record. The telemetry
// publisher may be nil when no broker is configured.
func New(
	cfg *config.Config,
	clk *clock.EpochClock,
	store *record.Store,
	rec *domain.Record,
	sensors gpio.Sensors,
	outputs gpio.Outputs,
	buttons gpio.Buttons,
	telemetry mqtt.Publisher,
) *Controller {
	c := &Controller{
		cfg:       cfg,
		clk:       clk,
		store:     store,
		rec:       rec,
		sensors:   sensors,
		outputs:   outputs,
		buttons:   buttons,
		telemetry: telemetry,
	}

	onDuration := config.PumpOnDuration(&cfg.Pump)
	c.pump = NewActuator(
		"pump",
		onDuration,
		cfg.Pump.Period-onDuration,
		PumpDelta(cfg.Pump.RateMLPer100s),
		&rec.Pump,
		&rec.PumpStats,
	)

	if cfg.Heater.Enabled {
		c.heater = NewActuator(
			"heater",
			cfg.Heater.OnDuration,
			cfg.Heater.IdleDuration,
			HeaterDelta(),
			&rec.Heater,
			&rec.HeaterStats,
		)
	}

	return c
}

// Record exposes the owned record for inspection; callers receive a copy.
func (c *Controller) Record() *domain.Record {
	return c.rec.Clone()
}

// Cycle runs one control cycle: refresh clock, conditional day rollover,
// conditional clock correction, command and sensor intake, state machine
// evaluation, telemetry, checkpoint. Nothing in here is fatal; an
// unattended controller must never halt.
func (c *Controller) Cycle(ctx context.Context) {
	now := c.clk.Now()
	dirty := false

	// Day rollover, exactly once per distinct calendar day.
	if day := clock.Day(now); day != c.rec.StatsDay {
		c.rec.PumpStats.Rollover()
		c.rec.HeaterStats.Rollover()
		c.rec.StatsDay = day
		dirty = true

		logger.InfoKV(ctx, "Daily statistics rollover", "day", day)
	}

	// Clock correction, only while no actuator is active so it never
	// perturbs an in-flight timed operation.
	if c.clk.CorrectionDue(now, c.rec.LastCorrectionAt) && !c.anyActive() {
		before := now
		now = c.clk.Correct()
		c.rec.LastCorrectionAt = now
		dirty = true

		logger.InfoKV(ctx, "Clock corrected",
			"delta_ms", int64(now)-int64(before))
	}

	dirty = c.applyCommands(ctx, now) || dirty

	sample := c.readSensors(ctx)
	c.latchCooldownEvents(now, sample)

	inhibition := EvaluateInhibition(
		&c.cfg.Cooldowns,
		&c.rec.Cooldowns,
		now,
		clock.ToTime(now).Month(),
		ProbeReading{
			Configured:   c.cfg.GPIO.TemperaturePath != "",
			OK:           sample.TemperatureOK,
			TemperatureC: sample.TemperatureC,
		},
	)

	dirty = c.evaluatePump(ctx, now, sample, inhibition) || dirty
	dirty = c.evaluateHeater(ctx, now, sample, inhibition) || dirty

	c.driveOutputs(ctx)
	c.publishStatus(ctx, now, inhibition)

	if dirty {
		// Synchronous checkpoint bounds data loss to one cycle. A failed
		// write degrades to "uncheckpointed for this cycle only".
		if err := c.store.Save(ctx, c.rec); err != nil {
			logger.Errorf(ctx, "Checkpoint failed: %v", err)
		}
	}
}

func (c *Controller) anyActive() bool {
	if c.forceRun {
		return true
	}

	if c.pump.Running() {
		return true
	}

	return c.heater != nil && c.heater.Running()
}

// applyCommands drains button edges and remote commands and applies them.
// Returns whether the record changed.
func (c *Controller) applyCommands(ctx context.Context, now domain.Timestamp) bool {
	commands, err := c.buttons.Poll()
	if err != nil {
		logger.Errorf(ctx, "Button poll failed: %v", err)
	}

	if c.telemetry != nil {
	drain:
		for {
			select {
			case command := <-c.telemetry.Commands():
				commands = append(commands, command)
			default:
				break drain
			}
		}
	}

	dirty := false

	for _, command := range commands {
		switch command.Type {
		case domain.CommandResetStatistics:
			c.rec.PumpStats.ResetAll()
			c.rec.HeaterStats.ResetAll()
			dirty = true

			logger.Info(ctx, "Statistics reset")
		case domain.CommandResetContainerTotal:
			c.rec.PumpStats.ResetTotal()
			dirty = true

			logger.Info(ctx, "Container refilled, total reset")
		case domain.CommandForceStop:
			c.rec.Cooldowns.ForceStopAt = now
			c.rec.Cooldowns.WasForceStopped = true
			dirty = true

			logger.Info(ctx, "Force stop engaged")
		case domain.CommandForceRun:
			c.forceRun = command.On

			logger.InfoKV(ctx, "Force run override", "on", command.On)
		case domain.CommandChangeDisplayMode:
			c.rec.Mode = c.rec.Mode.Next()
			dirty = true
		}
	}

	return dirty
}

// readSensors reads one sample, substituting conservative values on a
// surface failure: 100 % moisture and a failed probe keep both actuator
// triggers in their safe, non-activating state.
func (c *Controller) readSensors(ctx context.Context) domain.SensorSample {
	sample, err := c.sensors.Read()
	if err != nil {
		if !c.sensorFault {
			logger.Errorf(ctx, "Sensor read failed, substituting safe values: %v", err)
		}

		c.sensorFault = true

		return domain.SensorSample{MoisturePercent: 100}
	}

	c.sensorFault = !sample.TemperatureOK && c.cfg.GPIO.TemperaturePath != ""

	return sample
}

// latchCooldownEvents records wet and motion recency. These timestamps are
// carried into the next transition checkpoint rather than forcing a write
// of their own.
func (c *Controller) latchCooldownEvents(now domain.Timestamp, sample domain.SensorSample) {
	if sample.WaterLevel {
		c.rec.Cooldowns.LastWetAt = now
		c.rec.Cooldowns.WasWet = true
	}

	if sample.MotionDetected {
		c.rec.Cooldowns.MotionAt = now
		c.rec.Cooldowns.WasMotionStopped = true
	}
}

func (c *Controller) evaluatePump(
	ctx context.Context,
	now domain.Timestamp,
	sample domain.SensorSample,
	inhibition Inhibition,
) bool {
	trigger := !sample.WaterLevel &&
		sample.MoisturePercent < c.cfg.Pump.MoistureThresholdPercent

	transition, delta := c.pump.Evaluate(now, trigger, inhibition.Any())

	return c.reportTransition(ctx, now, c.pump, transition, delta)
}

func (c *Controller) evaluateHeater(
	ctx context.Context,
	now domain.Timestamp,
	sample domain.SensorSample,
	inhibition Inhibition,
) bool {
	if c.heater == nil {
		return false
	}

	// A failed probe reads as "warm enough": the trigger stays safe-off.
	trigger := sample.TemperatureOK && sample.TemperatureC < c.cfg.Heater.SetPointC

	transition, delta := c.heater.Evaluate(now, trigger, inhibition.Interlock())

	return c.reportTransition(ctx, now, c.heater, transition, delta)
}

// reportTransition logs and publishes a transition and reports whether the
// record changed.
func (c *Controller) reportTransition(
	ctx context.Context,
	now domain.Timestamp,
	actuator *Actuator,
	transition Transition,
	delta uint32,
) bool {
	var action string

	switch transition {
	case TransitionNone:
		return false
	case TransitionIdleRestarted:
		// Idle window rewound; no output change, but IdleSince moved.
		return true
	case TransitionStarted:
		action = "start"
	case TransitionStopped:
		action = "stop"
	case TransitionForcedStop:
		action = "forced_stop"
	}

	logger.InfoKV(ctx, "Actuator transition",
		"actuator", actuator.Name(), "action", action, "delta", delta)

	if c.telemetry != nil {
		event := mqtt.Event{
			Time:     clock.ToTime(now),
			Actuator: actuator.Name(),
			Action:   action,
			Delta:    delta,
		}

		if err := c.telemetry.PublishEvent(event); err != nil {
			logger.Errorf(ctx, "Publish event failed: %v", err)
		}
	}

	return true
}

// driveOutputs reconciles the physical outputs with the state machines,
// honoring the manual override: force-run asserts the pump directly, and
// on release the output reverts to whatever Running dictates.
func (c *Controller) driveOutputs(ctx context.Context) {
	pumpOut := c.forceRun || c.pump.Running()
	if pumpOut != c.pumpOut {
		if err := c.outputs.SetPump(pumpOut); err != nil {
			logger.Errorf(ctx, "Set pump output failed: %v", err)
		} else {
			c.pumpOut = pumpOut
		}
	}

	heaterOut := c.heater != nil && c.heater.Running()
	if heaterOut != c.heaterOut {
		if err := c.outputs.SetHeater(heaterOut); err != nil {
			logger.Errorf(ctx, "Set heater output failed: %v", err)
		} else {
			c.heaterOut = heaterOut
		}
	}
}

// publishStatus emits a periodic status snapshot for external renderers.
func (c *Controller) publishStatus(ctx context.Context, now domain.Timestamp, inhibition Inhibition) {
	if c.telemetry == nil {
		return
	}

	if c.lastStatusAt != 0 && now.Since(c.lastStatusAt) < c.cfg.MQTT.StatusInterval {
		return
	}

	c.lastStatusAt = now

	remaining := uint32(0)
	if c.cfg.Container.SizeML > c.rec.PumpStats.Total {
		remaining = c.cfg.Container.SizeML - c.rec.PumpStats.Total
	}

	status := mqtt.Status{
		Time:          clock.ToTime(now),
		PumpRunning:   c.pumpOut,
		HeaterRunning: c.heaterOut,
		PumpedTodayML: c.rec.PumpStats.Slots[0],
		PumpedTotalML: c.rec.PumpStats.Total,
		RemainingML:   remaining,
		LowWater:      remaining < c.cfg.Container.LowWaterML,
		SensorFault:   c.sensorFault,
		Inhibited:     inhibition.Any(),
		DisplayMode:   uint8(c.rec.Mode),
	}

	if err := c.telemetry.PublishStatus(status); err != nil {
		logger.Errorf(ctx, "Publish status failed: %v", err)
	}
}
