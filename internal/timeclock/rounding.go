package timeclock

import "time"

// RoundingIncrement is the payable-time boundary for clock events.
const RoundingIncrement = 15 * time.Minute

// RoundClockIn rounds down to the nearest 15-minute boundary. A timestamp
// already on a boundary is returned unchanged.
func RoundClockIn(t time.Time) time.Time {
	return floorToIncrement(t)
}

// RoundClockOut rounds up to the nearest 15-minute boundary, carrying over
// the hour or day when needed (23:58 rounds to 00:00 the next day).
func RoundClockOut(t time.Time) time.Time {
	floored := floorToIncrement(t)
	if floored.Equal(t) {
		return t
	}
	return floored.Add(RoundingIncrement)
}

// floorToIncrement works on wall-clock minute-of-hour so the result is stable
// regardless of the zone's offset from UTC.
func floorToIncrement(t time.Time) time.Time {
	over := time.Duration(t.Minute())*time.Minute%RoundingIncrement +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return t.Add(-over)
}
