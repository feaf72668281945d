package record

import (
	"encoding/binary"
	"errors"
	"fmt"

	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// The record image uses fixed little-endian offsets so that a previously
// checkpointed image stays readable across releases. Statistics are stored
// as 16-bit values, saturating on encode.
const (
	offPumpSlots        = 0
	offPumpTotal        = 48
	offSentinel         = 50
	offLastCorrectionAt = 51
	offPumpStartedAt    = 59
	offPumpIdleSince    = 67
	offLastWetAt        = 75
	offStatsDay         = 83
	offDisplayMode      = 84
	offHeaterSlots      = 85
	offHeaterTotal      = 133
	offHeaterStartedAt  = 135
	offHeaterIdleSince  = 143
	offForceStopAt      = 151
	offMotionAt         = 159
	offFlags            = 167

	// ImageSize is the exact length of an encoded record.
	ImageSize = 168
)

// sentinel marks an image that has been initialized before. Any other value
// at the sentinel offset means blank or erased storage.
const sentinel = 0xAA

// Flag bits packed at offFlags.
const (
	flagWasWet uint8 = 1 << iota
	flagWasForceStopped
	flagWasMotionStopped
	flagPumpRunning
	flagHeaterRunning
)

// ErrUninitialized reports that the stored image carries no valid sentinel
// and must be treated as blank.
var ErrUninitialized = errors.New("storage uninitialized")

// Encode serializes a record into a fresh image.
func Encode(r *domain.Record) []byte {
	image := make([]byte, ImageSize)

	encodeStats(image[offPumpSlots:], image[offPumpTotal:], &r.PumpStats)
	encodeStats(image[offHeaterSlots:], image[offHeaterTotal:], &r.HeaterStats)

	image[offSentinel] = sentinel

	putTimestamp(image[offLastCorrectionAt:], r.LastCorrectionAt)
	putTimestamp(image[offPumpStartedAt:], r.Pump.StartedAt)
	putTimestamp(image[offPumpIdleSince:], r.Pump.IdleSince)
	putTimestamp(image[offLastWetAt:], r.Cooldowns.LastWetAt)
	putTimestamp(image[offHeaterStartedAt:], r.Heater.StartedAt)
	putTimestamp(image[offHeaterIdleSince:], r.Heater.IdleSince)
	putTimestamp(image[offForceStopAt:], r.Cooldowns.ForceStopAt)
	putTimestamp(image[offMotionAt:], r.Cooldowns.MotionAt)

	image[offStatsDay] = r.StatsDay
	image[offDisplayMode] = uint8(r.Mode)

	var flags uint8

	if r.Cooldowns.WasWet {
		flags |= flagWasWet
	}

	if r.Cooldowns.WasForceStopped {
		flags |= flagWasForceStopped
	}

	if r.Cooldowns.WasMotionStopped {
		flags |= flagWasMotionStopped
	}

	if r.Pump.Running {
		flags |= flagPumpRunning
	}

	if r.Heater.Running {
		flags |= flagHeaterRunning
	}

	image[offFlags] = flags

	return image
}

// Decode parses an image into a record. A short image or a sentinel
// mismatch yields ErrUninitialized; the caller resets and rewrites.
func Decode(image []byte) (*domain.Record, error) {
	if len(image) < ImageSize {
		return nil, fmt.Errorf("%w: image is %d bytes, want %d", ErrUninitialized, len(image), ImageSize)
	}

	if image[offSentinel] != sentinel {
		return nil, fmt.Errorf("%w: sentinel mismatch", ErrUninitialized)
	}

	r := &domain.Record{}

	decodeStats(image[offPumpSlots:], image[offPumpTotal:], &r.PumpStats)
	decodeStats(image[offHeaterSlots:], image[offHeaterTotal:], &r.HeaterStats)

	r.LastCorrectionAt = getTimestamp(image[offLastCorrectionAt:])
	r.Pump.StartedAt = getTimestamp(image[offPumpStartedAt:])
	r.Pump.IdleSince = getTimestamp(image[offPumpIdleSince:])
	r.Cooldowns.LastWetAt = getTimestamp(image[offLastWetAt:])
	r.Heater.StartedAt = getTimestamp(image[offHeaterStartedAt:])
	r.Heater.IdleSince = getTimestamp(image[offHeaterIdleSince:])
	r.Cooldowns.ForceStopAt = getTimestamp(image[offForceStopAt:])
	r.Cooldowns.MotionAt = getTimestamp(image[offMotionAt:])

	r.StatsDay = image[offStatsDay]
	r.Mode = domain.DisplayMode(image[offDisplayMode])

	flags := image[offFlags]
	r.Cooldowns.WasWet = flags&flagWasWet != 0
	r.Cooldowns.WasForceStopped = flags&flagWasForceStopped != 0
	r.Cooldowns.WasMotionStopped = flags&flagWasMotionStopped != 0
	r.Pump.Running = flags&flagPumpRunning != 0
	r.Heater.Running = flags&flagHeaterRunning != 0

	return r, nil
}

func encodeStats(slots, total []byte, s *domain.Statistics) {
	for i, v := range s.Slots {
		binary.LittleEndian.PutUint16(slots[i*2:], saturate16(v))
	}

	binary.LittleEndian.PutUint16(total, saturate16(s.Total))
}

func decodeStats(slots, total []byte, s *domain.Statistics) {
	for i := range s.Slots {
		s.Slots[i] = uint32(binary.LittleEndian.Uint16(slots[i*2:]))
	}

	s.Total = uint32(binary.LittleEndian.Uint16(total))
}

func putTimestamp(b []byte, ts domain.Timestamp) {
	binary.LittleEndian.PutUint64(b, uint64(ts))
}

func getTimestamp(b []byte) domain.Timestamp {
	return domain.Timestamp(binary.LittleEndian.Uint64(b))
}

func saturate16(v uint32) uint16 {
	if v > 0xFFFF {
		return 0xFFFF
	}

	return uint16(v)
}
