package timeclock

import (
	"sort"
	"time"
)

// Direction distinguishes clock-in from clock-out events inside a wave.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// GraceWindow is the tolerance within which a minority rounded time is
// snapped to its wave's majority value.
const GraceWindow = 15 * time.Minute

// AdjustedEntry is one clock entry after rounding and synchronization. The
// raw stored entry is never modified; adjusted values exist only in memory.
type AdjustedEntry struct {
	EntryID      int64      `json:"entry_id"`
	AssignmentID int64      `json:"assignment_id"`
	Ordinal      int        `json:"ordinal"`
	ClockIn      time.Time  `json:"clock_in"`
	ClockOut     *time.Time `json:"clock_out,omitempty"`
}

// Duration returns the payable span of a closed entry, zero while open.
func (e *AdjustedEntry) Duration() time.Duration {
	if e.ClockOut == nil {
		return 0
	}
	return e.ClockOut.Sub(e.ClockIn)
}

// Adjustment records one snap for audit display.
type Adjustment struct {
	EntryID      int64     `json:"entry_id"`
	AssignmentID int64     `json:"assignment_id"`
	Ordinal      int       `json:"ordinal"`
	Direction    Direction `json:"direction"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
}

type ChangeSummary struct {
	Adjustments []Adjustment `json:"adjustments"`
}

type waveKey struct {
	ordinal   int
	direction Direction
}

// Synchronize rounds every entry and snaps minority outliers to their wave's
// majority value. Waves are keyed by (ordinal, direction) across all
// assignments on the shift. The engine never fails: ambiguous waves (no
// unique mode) and values outside the grace window are left as rounded, and
// open entries are excluded from wave computation entirely.
func Synchronize(entries []*ClockEntry) ([]*AdjustedEntry, ChangeSummary) {
	adjusted := make([]*AdjustedEntry, 0, len(entries))
	for _, e := range entries {
		ae := &AdjustedEntry{
			EntryID:      e.ID,
			AssignmentID: e.AssignmentID,
			Ordinal:      e.Ordinal,
			ClockIn:      RoundClockIn(e.ClockIn),
		}
		if e.ClockOut != nil {
			out := RoundClockOut(*e.ClockOut)
			ae.ClockOut = &out
		}
		adjusted = append(adjusted, ae)
	}

	waves := make(map[waveKey][]*AdjustedEntry)
	for _, ae := range adjusted {
		if ae.ClockOut == nil {
			// Open entries have no counterpart yet; leave them untouched.
			continue
		}
		waves[waveKey{ae.Ordinal, DirectionIn}] = append(waves[waveKey{ae.Ordinal, DirectionIn}], ae)
		waves[waveKey{ae.Ordinal, DirectionOut}] = append(waves[waveKey{ae.Ordinal, DirectionOut}], ae)
	}

	summary := ChangeSummary{Adjustments: []Adjustment{}}
	for key, members := range waves {
		if len(members) < 2 {
			continue
		}
		mode, ok := waveMode(members, key.direction)
		if !ok {
			continue
		}
		for _, ae := range members {
			value := eventValue(ae, key.direction)
			if value.Equal(mode) {
				continue
			}
			delta := mode.Sub(value)
			if delta < 0 {
				delta = -delta
			}
			if delta > GraceWindow {
				continue
			}
			summary.Adjustments = append(summary.Adjustments, Adjustment{
				EntryID:      ae.EntryID,
				AssignmentID: ae.AssignmentID,
				Ordinal:      key.ordinal,
				Direction:    key.direction,
				From:         value,
				To:           mode,
			})
			setEventValue(ae, key.direction, mode)
		}
	}

	sort.Slice(summary.Adjustments, func(i, j int) bool {
		a, b := summary.Adjustments[i], summary.Adjustments[j]
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		return a.EntryID < b.EntryID
	})

	return adjusted, summary
}

// waveMode returns the wave's most frequent value. When several values tie
// for most frequent the wave is ambiguous and is left unmodified rather than
// guessed at.
func waveMode(members []*AdjustedEntry, dir Direction) (time.Time, bool) {
	counts := make(map[int64]int)
	values := make(map[int64]time.Time)
	for _, ae := range members {
		v := eventValue(ae, dir)
		k := v.UnixNano()
		counts[k]++
		values[k] = v
	}

	best := 0
	var bestKey int64
	tied := false
	for k, c := range counts {
		switch {
		case c > best:
			best = c
			bestKey = k
			tied = false
		case c == best:
			tied = true
		}
	}
	if tied || best == 0 {
		return time.Time{}, false
	}
	return values[bestKey], true
}

func eventValue(ae *AdjustedEntry, dir Direction) time.Time {
	if dir == DirectionIn {
		return ae.ClockIn
	}
	return *ae.ClockOut
}

func setEventValue(ae *AdjustedEntry, dir Direction, v time.Time) {
	if dir == DirectionIn {
		ae.ClockIn = v
		return
	}
	ae.ClockOut = &v
}
