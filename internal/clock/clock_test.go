package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// fakeTime is a controllable tick + absolute source pair. The absolute
// clock can be skewed independently of the ticks to model drift.
type fakeTime struct {
	elapsed time.Duration
	base    time.Time
	skew    time.Duration
}

func newFakeTime() *fakeTime {
	return &fakeTime{base: time.Unix(1_700_000_000, 0).UTC()}
}

func (f *fakeTime) ticks() time.Duration { return f.elapsed }

func (f *fakeTime) absolute() time.Time { return f.base.Add(f.elapsed + f.skew) }

func (f *fakeTime) advance(d time.Duration) { f.elapsed += d }

// TestNowTracksTicks verifies that Now advances exactly with the tick source.
func TestNowTracksTicks(t *testing.T) {
	t.Parallel()

	ft := newFakeTime()
	c := New(ft.ticks, ft.absolute, time.Hour)

	start := c.Now()
	ft.advance(90 * time.Second)

	require.Equal(t, 90*time.Second, c.Now().Since(start))
}

// TestCorrectAppliesSkew checks that a drifted tick source is corrected
// additively against the absolute clock, in both directions.
func TestCorrectAppliesSkew(t *testing.T) {
	t.Parallel()

	for _, skew := range []time.Duration{3 * time.Second, -3 * time.Second} {
		ft := newFakeTime()
		c := New(ft.ticks, ft.absolute, time.Hour)

		ft.advance(time.Hour)
		ft.skew = skew

		before := c.Now()
		after := c.Correct()

		require.Equal(t, ToTimestamp(ft.absolute()), after)
		require.Equal(t, int64(before)+skew.Milliseconds(), int64(after))

		// A second correction with no further drift is a no-op.
		require.Equal(t, after, c.Correct())
	}
}

// TestCorrectionDue verifies the resync-interval gate.
func TestCorrectionDue(t *testing.T) {
	t.Parallel()

	ft := newFakeTime()
	c := New(ft.ticks, ft.absolute, time.Hour)

	last := c.Now()
	ft.advance(time.Hour)
	require.False(t, c.CorrectionDue(c.Now(), last))

	ft.advance(time.Millisecond)
	require.True(t, c.CorrectionDue(c.Now(), last))
}

// TestDayBoundary checks day-of-month extraction across midnight.
func TestDayBoundary(t *testing.T) {
	t.Parallel()

	justBefore := ToTimestamp(time.Date(2026, time.March, 4, 23, 59, 59, 0, time.UTC))
	justAfter := justBefore.Add(2 * time.Second)

	require.Equal(t, uint8(4), Day(justBefore))
	require.Equal(t, uint8(5), Day(justAfter))
}

// TestTimestampConversionRoundTrip exercises ToTime/ToTimestamp and the
// clamp for instants before the device epoch.
func TestTimestampConversionRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.August, 24, 12, 30, 15, 250_000_000, time.UTC)
	require.Equal(t, at, ToTime(ToTimestamp(at)))

	require.Equal(t, domain.Timestamp(0), ToTimestamp(time.Unix(0, 0)))
}
