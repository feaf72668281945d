// Package irrigation contains core domain types for the watering controller.
//
// It defines the millisecond Timestamp, the operator Command and SensorSample
// inputs, the per-actuator state, the cooldown timers, the rolling Statistics
// accumulator and the aggregate Record that the persistence layer checkpoints.
package irrigation
