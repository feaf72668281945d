// Package controller implements the irrigation control core: the composite
// cooldown/inhibition policy, the generic Idle/Active actuator state
// machine instantiated for the pump and the heater, and the single-threaded
// control cycle that ties clock, sensors, commands, telemetry and the
// persistence checkpoint together.
package controller
