package gpio

import (
	"errors"

	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// FakeSensors is a test double that returns scripted sensor samples.
type FakeSensors struct {
	// Samples contains scripted readings; each Read consumes the next.
	// When exhausted, the last sample repeats.
	Samples []domain.SensorSample

	// ReadError, if set, is returned by Read.
	ReadError error

	// Closed tracks whether Close was called.
	Closed bool

	index int
}

// NewFakeSensors creates a FakeSensors with the given samples.
func NewFakeSensors(samples ...domain.SensorSample) *FakeSensors {
	return &FakeSensors{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeSensors) Read() (domain.SensorSample, error) {
	if f.ReadError != nil {
		return domain.SensorSample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return domain.SensorSample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the sensors as closed.
func (f *FakeSensors) Close() error {
	f.Closed = true

	return nil
}

// FakeOutputs records actuator output transitions for assertions.
type FakeOutputs struct {
	// Pump and Heater hold the last asserted values.
	Pump   bool
	Heater bool

	// PumpHistory and HeaterHistory record every Set call in order.
	PumpHistory   []bool
	HeaterHistory []bool

	// SetError, if set, is returned by SetPump and SetHeater.
	SetError error

	// Closed tracks whether Close was called.
	Closed bool
}

// SetPump records the pump output.
func (f *FakeOutputs) SetPump(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}

	f.Pump = on
	f.PumpHistory = append(f.PumpHistory, on)

	return nil
}

// SetHeater records the heater output.
func (f *FakeOutputs) SetHeater(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}

	f.Heater = on
	f.HeaterHistory = append(f.HeaterHistory, on)

	return nil
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.Closed = true

	return nil
}

// FakeButtons feeds scripted command batches, one batch per poll.
type FakeButtons struct {
	// Batches are returned in order; polls past the end yield nothing.
	Batches [][]domain.Command

	// Closed tracks whether Close was called.
	Closed bool

	index int
}

// Push appends a batch of commands for a future poll.
func (f *FakeButtons) Push(commands ...domain.Command) {
	f.Batches = append(f.Batches, commands)
}

// Poll returns the next scripted batch.
func (f *FakeButtons) Poll() ([]domain.Command, error) {
	if f.index >= len(f.Batches) {
		return nil, nil
	}

	batch := f.Batches[f.index]
	f.index++

	return batch, nil
}

// Close marks the buttons as closed.
func (f *FakeButtons) Close() error {
	f.Closed = true

	return nil
}
