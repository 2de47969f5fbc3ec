package timeclock

import "time"

// ClockActionDTO optionally overrides the event instant; when zero the
// server clock is used.
type ClockActionDTO struct {
	At time.Time `json:"at,omitempty"`
}

type ClockEntryResponse struct {
	Entry *ClockEntry `json:"entry"`
}

type AdjustmentsResponse struct {
	ShiftID int64            `json:"shift_id"`
	Entries []*AdjustedEntry `json:"entries"`
	Summary ChangeSummary    `json:"summary"`
}

type EndShiftResponse struct {
	ShiftID          int64 `json:"shift_id"`
	AssignmentsEnded int64 `json:"assignments_ended"`
}
