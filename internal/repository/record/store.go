package record

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// Store composes the opaque Storage collaborator with the record codec and
// the sentinel policy. It is the only component that interprets the image.
type Store struct {
	storage Storage
}

// NewStore creates a store over the provided storage.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Load returns the checkpointed record. Blank or erased storage (missing
// image, short image, sentinel mismatch) is recovered locally: the record
// is reset with timers stamped at now and the current day, the sentinel is
// set, and the fresh image is written back. This is the only implicit-write
// path, taken once at first boot or after storage is erased.
func (s *Store) Load(ctx context.Context, now domain.Timestamp, day uint8) (*domain.Record, error) {
	image, err := s.storage.Load(ctx)

	switch {
	case err == nil:
		r, decodeErr := Decode(image)
		if decodeErr == nil {
			return r, nil
		}

		if !errors.Is(decodeErr, ErrUninitialized) {
			return nil, decodeErr
		}
	case errors.Is(err, ErrNotFound):
		// Blank storage, fall through to reset.
	default:
		return nil, fmt.Errorf("load record: %w", err)
	}

	r := Reset(now, day)
	if err := s.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("initialize record: %w", err)
	}

	return r, nil
}

// Save checkpoints the record synchronously.
func (s *Store) Save(ctx context.Context, r *domain.Record) error {
	if err := s.storage.Save(ctx, Encode(r)); err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	return nil
}

// Reset builds the record an uninitialized controller starts from:
// all-zero statistics, actuator timers stamped at now, the current day
// marker, and no cooldown ever triggered.
func Reset(now domain.Timestamp, day uint8) *domain.Record {
	return &domain.Record{
		Pump:             domain.ActuatorState{StartedAt: now, IdleSince: now},
		Heater:           domain.ActuatorState{StartedAt: now, IdleSince: now},
		LastCorrectionAt: now,
		StatsDay:         day,
	}
}
