package irrigation

// ActuatorState is the persistent portion of one actuator's state machine.
// It is initialized from the persisted record at boot and mutated only by
// Start/Stop transitions.
type ActuatorState struct {
	// Running is true while the actuator output is asserted.
	Running bool
	// StartedAt is when the current (or last) active period began.
	StartedAt Timestamp
	// IdleSince is when the current (or last) idle period began.
	IdleSince Timestamp
}

// Cooldowns holds the recent-event timers feeding the inhibition policy.
// Timestamps are set on trigger and never explicitly cleared; expiry is
// purely recency-based, gated by the ever-triggered flags.
type Cooldowns struct {
	// LastWetAt is when the float switch last reported a wet plant.
	LastWetAt Timestamp
	// ForceStopAt is when the operator last forced a stop.
	ForceStopAt Timestamp
	// MotionAt is when motion was last detected near the plant.
	MotionAt Timestamp

	// WasWet, WasForceStopped and WasMotionStopped record whether the
	// corresponding event has ever fired. A zero timestamp with a clear
	// flag means "never", not "at the device epoch".
	WasWet           bool
	WasForceStopped  bool
	WasMotionStopped bool
}

// Record is the full mutable core state, mirrored one-to-one by the
// persisted checkpoint. The control loop exclusively owns the only
// instance; collaborators receive copies.
type Record struct {
	// Pump and Heater are the two actuator state machines' persistent state.
	Pump   ActuatorState
	Heater ActuatorState

	// Cooldowns feed the composite inhibition predicate.
	Cooldowns Cooldowns

	// PumpStats accumulates pumped millilitres per day; HeaterStats
	// accumulates heater on-time seconds per day.
	PumpStats   Statistics
	HeaterStats Statistics

	// LastCorrectionAt is when the epoch clock was last resynchronized
	// against the external absolute clock.
	LastCorrectionAt Timestamp

	// StatsDay is the calendar day-of-month slot 0 belongs to. The daily
	// rollover is idempotent per distinct value.
	StatsDay uint8

	// Mode is the currently selected display mode.
	Mode DisplayMode
}

// Clone returns a deep copy of the record so callers cannot alias the
// control loop's state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}
