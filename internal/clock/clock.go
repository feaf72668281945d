package clock

import (
	"time"

	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// deviceEpochUnix is the Unix second the device epoch starts at. Timestamps
// are milliseconds since this instant, which keeps them comfortably inside
// 64 bits for the lifetime of the hardware.
const deviceEpochUnix int64 = 1_694_490_000

// Ticks returns the monotonic elapsed time since process start. It must
// never jump or rewind; the epoch clock layers absolute time on top of it.
type Ticks func() time.Duration

// Absolute returns the external wall-clock reading. It is consulted once at
// boot and then only during periodic correction.
type Absolute func() time.Time

// Monotonic returns a Ticks source backed by the runtime monotonic clock.
func Monotonic() Ticks {
	start := time.Now()

	return func() time.Duration {
		return time.Since(start)
	}
}

// SystemAbsolute returns an Absolute source backed by the system clock.
func SystemAbsolute() Absolute {
	return time.Now
}

// EpochClock derives a continuous epoch timestamp from a free-running tick
// counter plus a boot-time absolute reading. The derived clock drifts with
// the tick source and is corrected additively against the absolute source;
// the controller only requests correction while no actuator is active, so a
// correction never perturbs an in-flight timed operation.
type EpochClock struct {
	ticks        Ticks
	absolute     Absolute
	epochAtStart domain.Timestamp
	resyncEvery  time.Duration
}

// New builds an epoch clock anchored so that Now() matches the absolute
// source at the moment of the call.
func New(ticks Ticks, absolute Absolute, resyncEvery time.Duration) *EpochClock {
	c := &EpochClock{
		ticks:       ticks,
		absolute:    absolute,
		resyncEvery: resyncEvery,
	}

	elapsed := domain.Timestamp(ticks().Milliseconds())
	c.epochAtStart = ToTimestamp(absolute()) - elapsed

	return c
}

// Now returns the current epoch timestamp.
func (c *EpochClock) Now() domain.Timestamp {
	return c.epochAtStart + domain.Timestamp(c.ticks().Milliseconds())
}

// CorrectionDue reports whether the periodic resync interval has elapsed
// since the last correction.
func (c *EpochClock) CorrectionDue(now, lastCorrectionAt domain.Timestamp) bool {
	return now.Since(lastCorrectionAt) > c.resyncEvery
}

// Correct resynchronizes the derived clock against the absolute source and
// returns the corrected current timestamp. The tick read and the adjustment
// happen as one step against a single tick sample, so no interval is skipped
// or double-counted. The caller must ensure no actuator is active.
func (c *EpochClock) Correct() domain.Timestamp {
	elapsed := domain.Timestamp(c.ticks().Milliseconds())
	derived := c.epochAtStart + elapsed
	external := ToTimestamp(c.absolute())

	delta := int64(external) - int64(derived)
	c.epochAtStart = domain.Timestamp(int64(c.epochAtStart) + delta)

	return c.epochAtStart + elapsed
}

// Day returns the calendar day-of-month a timestamp falls on, in UTC.
// The controller compares successive values to fire the daily statistics
// rollover exactly once per distinct day.
func Day(ts domain.Timestamp) uint8 {
	return uint8(ToTime(ts).Day())
}

// ToTime converts an epoch timestamp to wall-clock time in UTC.
func ToTime(ts domain.Timestamp) time.Time {
	ms := int64(ts)

	return time.Unix(deviceEpochUnix+ms/1000, ms%1000*int64(time.Millisecond)).UTC()
}

// ToTimestamp converts wall-clock time to an epoch timestamp. Instants
// before the device epoch clamp to zero.
func ToTimestamp(t time.Time) domain.Timestamp {
	ms := t.Unix()*1000 + int64(t.Nanosecond())/int64(time.Millisecond) - deviceEpochUnix*1000
	if ms < 0 {
		return 0
	}

	return domain.Timestamp(ms)
}
