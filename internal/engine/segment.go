package engine

import "time"

// Segment is the time mapping the engine announces on a branch before the
// units it applies to. Stop is negative for an open segment.
type Segment struct {
	Rate        float64
	AppliedRate float64
	Start       time.Duration
	Stop        time.Duration
	Time        time.Duration
	Base        time.Duration
}

// DefaultSegment is the identity mapping used until the engine sends one.
func DefaultSegment() Segment {
	return Segment{Rate: 1, AppliedRate: 1, Stop: -1}
}

// ToStreamTime maps a buffer timestamp to stream time, the position in the
// media the host synchronizes on. ok is false when the position is unknown
// or outside the segment.
func (s Segment) ToStreamTime(position time.Duration) (time.Duration, bool) {
	if position < 0 || position < s.Start {
		return -1, false
	}
	if s.Stop >= 0 && position > s.Stop {
		return -1, false
	}

	applied := s.AppliedRate
	if applied == 0 {
		applied = 1
	}

	delta := position - s.Start
	if applied < 0 {
		scaled := time.Duration(float64(delta) * -applied)
		if scaled > s.Time {
			return -1, false
		}
		return s.Time - scaled, true
	}
	if applied != 1 {
		delta = time.Duration(float64(delta) * applied)
	}
	return s.Time + delta, true
}
