//go:build !linux

package gpio

import (
	"errors"

	"github.com/verdantlabs/plantguard/internal/config"
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// Real is not available on non-Linux platforms.
type Real struct{}

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// NewReal returns an error on non-Linux platforms.
func NewReal(_ *config.GPIOConfig) (*Real, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *Real) Read() (domain.SensorSample, error) {
	return domain.SensorSample{}, errUnsupported
}

// SetPump is not implemented on non-Linux platforms.
func (r *Real) SetPump(bool) error { return errUnsupported }

// SetHeater is not implemented on non-Linux platforms.
func (r *Real) SetHeater(bool) error { return errUnsupported }

// Poll is not implemented on non-Linux platforms.
func (r *Real) Poll() ([]domain.Command, error) { return nil, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *Real) Close() error { return nil }
