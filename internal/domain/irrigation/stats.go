package irrigation

// StatSlots is the fixed rolling-statistics horizon in periods (days).
const StatSlots = 24

// Statistics is a fixed-length per-period accumulator with a lifetime total.
// Slot 0 is the current period; higher indices are older periods.
type Statistics struct {
	// Slots holds one accumulated value per period.
	Slots [StatSlots]uint32
	// Total accumulates across periods and resets only on demand.
	Total uint32
}

// Rollover shifts every slot one period older and zeroes the current slot.
// The oldest period falls off the end unconditionally. The caller guards
// this with the day marker so it runs at most once per calendar day.
func (s *Statistics) Rollover() {
	for i := StatSlots - 1; i > 0; i-- {
		s.Slots[i] = s.Slots[i-1]
	}

	s.Slots[0] = 0
}

// RecordDelta adds v to the current period and to the lifetime total.
func (s *Statistics) RecordDelta(v uint32) {
	s.Slots[0] += v
	s.Total += v
}

// ResetAll zeroes every slot and the lifetime total.
func (s *Statistics) ResetAll() {
	for i := range s.Slots {
		s.Slots[i] = 0
	}

	s.Total = 0
}

// ResetTotal zeroes only the lifetime total, keeping per-period history.
// Used when the water container is refilled.
func (s *Statistics) ResetTotal() {
	s.Total = 0
}
