package irrigation

import "time"

// Timestamp is a millisecond count since the device epoch. The device epoch
// is an arbitrary fixed offset from the Unix epoch chosen so that the value
// stays small; see the clock package for the conversion.
type Timestamp uint64

// Add returns the timestamp shifted forward by d. Negative durations are
// clamped to zero so a timestamp never moves backwards through arithmetic.
func (t Timestamp) Add(d time.Duration) Timestamp {
	if d <= 0 {
		return t
	}

	return t + Timestamp(d.Milliseconds())
}

// Since returns the elapsed duration from earlier to t.
// If earlier is not actually earlier, the result is zero.
func (t Timestamp) Since(earlier Timestamp) time.Duration {
	if earlier >= t {
		return 0
	}

	return time.Duration(t-earlier) * time.Millisecond
}

// Before reports whether t is strictly earlier than u.
func (t Timestamp) Before(u Timestamp) bool {
	return t < u
}

// CommandType identifies an edge-triggered operator command.
type CommandType uint8

// Operator commands consumed by the control loop. Each is an edge event:
// the debounced source emits one command per press or per received message.
const (
	// CommandResetStatistics zeroes every statistics slot and counter.
	CommandResetStatistics CommandType = iota + 1
	// CommandResetContainerTotal zeroes the lifetime pumped total after a refill.
	CommandResetContainerTotal
	// CommandForceStop stamps the force-stop cooldown, interrupting any run.
	CommandForceStop
	// CommandForceRun manually overrides the pump output; On carries the edge.
	CommandForceRun
	// CommandChangeDisplayMode cycles the persisted display mode.
	CommandChangeDisplayMode
)

// Command is a single operator command event.
type Command struct {
	// Type identifies the command.
	Type CommandType
	// On carries the desired output state for CommandForceRun.
	On bool
}

// SensorSample is one cycle's worth of discrete sensor readings.
// Samples are read-only inputs to the control loop.
type SensorSample struct {
	// WaterLevel is true while the float switch reports a wet plant.
	WaterLevel bool
	// MoisturePercent is the soil moisture reading, 0-100.
	MoisturePercent uint8
	// TemperatureC is the soil temperature in degrees Celsius.
	// Only meaningful when TemperatureOK is true.
	TemperatureC float64
	// TemperatureOK is false when the probe reports its failure sentinel.
	TemperatureOK bool
	// MotionDetected is true while the motion sensor reports presence.
	MotionDetected bool
}

// DisplayMode selects which page an external display renderer shows.
// The mode itself is core state: it is persisted and cycled by command.
type DisplayMode uint8

const (
	// DisplayOverview shows recent statistics and current status.
	DisplayOverview DisplayMode = iota
	// DisplayHistory shows how long ago the plant was wet and watered.
	DisplayHistory
	// DisplayContainer shows pumped and remaining container volume.
	DisplayContainer

	displayModeCount
)

// Next returns the mode following m, wrapping around to the first.
func (m DisplayMode) Next() DisplayMode {
	return (m + 1) % displayModeCount
}
