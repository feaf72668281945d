// Package gpio provides the hardware surfaces the control core consumes:
// sensor inputs, actuator outputs and operator buttons. The real
// implementation uses the Linux GPIO character device plus sysfs files for
// the analog probes; fakes allow testing without hardware.
package gpio

import (
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// Sensors reads one sample of every sensor per control cycle.
type Sensors interface {
	// Read returns the current sensor sample. Individual probe failures
	// are folded into the sample (TemperatureOK false); an error means
	// the whole surface is unusable.
	Read() (domain.SensorSample, error)

	// Close releases sensor resources.
	Close() error
}

// Outputs drives the actuator relays.
type Outputs interface {
	// SetPump asserts or de-asserts the pump relay.
	SetPump(on bool) error

	// SetHeater asserts or de-asserts the heater relay.
	SetHeater(on bool) error

	// Close de-asserts both outputs and releases resources.
	Close() error
}

// Buttons yields the operator command events observed since the last poll.
type Buttons interface {
	// Poll reads the buttons and returns edge-triggered commands.
	Poll() ([]domain.Command, error)

	// Close releases button resources.
	Close() error
}
