package controller

import (
	"time"

	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// Transition is the outcome of one actuator evaluation.
type Transition uint8

const (
	// TransitionNone means the actuator kept its state.
	TransitionNone Transition = iota
	// TransitionStarted means Idle became Active.
	TransitionStarted
	// TransitionStopped means Active became Idle because the on-duration
	// elapsed.
	TransitionStopped
	// TransitionForcedStop means Active became Idle because the
	// inhibition policy interrupted the run early.
	TransitionForcedStop
	// TransitionIdleRestarted means the idle window expired without a
	// clear start and was rewound, deferring the next attempt.
	TransitionIdleRestarted
)

// DeltaFunc converts an active duration into the statistics unit of the
// actuator: pumped millilitres for the pump, on-time seconds for the
// heater. Implementations use truncating integer division so repeated
// short activations never yield negative or overflowed deltas.
type DeltaFunc func(active time.Duration) uint32

// PumpDelta returns the volume conversion for a pump rated in millilitres
// per 100 seconds.
func PumpDelta(rateMLPer100s uint32) DeltaFunc {
	return func(active time.Duration) uint32 {
		return uint32(uint64(active.Milliseconds()) * uint64(rateMLPer100s) / 100_000)
	}
}

// HeaterDelta converts active time to whole seconds of heater on-time.
func HeaterDelta() DeltaFunc {
	return func(active time.Duration) uint32 {
		return uint32(active.Milliseconds() / 1_000)
	}
}

// Actuator is one Idle/Active state machine. Both physical actuators are
// instances of this type, differing only in configuration; the state and
// statistics live in the persisted record, so the actuator mutates them
// in place and the caller checkpoints.
type Actuator struct {
	name         string
	onDuration   time.Duration
	idleDuration time.Duration
	delta        DeltaFunc

	state *domain.ActuatorState
	stats *domain.Statistics
}

// NewActuator builds an actuator over the given slice of record state.
func NewActuator(
	name string,
	onDuration, idleDuration time.Duration,
	delta DeltaFunc,
	state *domain.ActuatorState,
	stats *domain.Statistics,
) *Actuator {
	return &Actuator{
		name:         name,
		onDuration:   onDuration,
		idleDuration: idleDuration,
		delta:        delta,
		state:        state,
		stats:        stats,
	}
}

// Name identifies the actuator in logs and telemetry.
func (a *Actuator) Name() string { return a.name }

// Running reports whether the actuator is Active.
func (a *Actuator) Running() bool { return a.state.Running }

// Evaluate advances the state machine by one cycle and returns the
// transition taken plus the statistics delta accounted by a stop.
//
// Idle to Active requires the idle duration elapsed, the trigger true and
// no inhibition. Active to Idle happens when the on-duration elapses or
// the inhibition policy forces an interruption. An expired idle window
// without a clear start rewinds the window so the next attempt is a full
// idle period away.
func (a *Actuator) Evaluate(now domain.Timestamp, trigger, inhibited bool) (Transition, uint32) {
	if a.state.Running {
		active := now.Since(a.state.StartedAt)

		forced := inhibited && active <= a.onDuration
		if active <= a.onDuration && !inhibited {
			return TransitionNone, 0
		}

		delta := a.delta(active)

		a.state.Running = false
		a.state.IdleSince = now
		a.stats.RecordDelta(delta)

		if forced {
			return TransitionForcedStop, delta
		}

		return TransitionStopped, delta
	}

	if now.Since(a.state.IdleSince) <= a.idleDuration {
		return TransitionNone, 0
	}

	if trigger && !inhibited {
		a.state.Running = true
		a.state.StartedAt = now

		return TransitionStarted, 0
	}

	a.state.IdleSince = now

	return TransitionIdleRestarted, 0
}
