package timeclock

import (
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	clockentryDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/clockentry"
)

// ClockEntry is the domain view of one clock-in/clock-out pair. Ordinal is
// the per-assignment sequence number, starting at 1; a nil ClockOut means the
// entry is still open.
type ClockEntry struct {
	ID           int64      `json:"id"`
	AssignmentID int64      `json:"assignment_id"`
	Ordinal      int        `json:"ordinal"`
	ClockIn      time.Time  `json:"clock_in"`
	ClockOut     *time.Time `json:"clock_out,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (e *ClockEntry) IsOpen() bool {
	return e.ClockOut == nil
}

// Domain errors. These are AppErrors so handlers can map them without a
// bespoke switch per call site.
var (
	ErrOpenEntryExists = internal.NewConflictError("an open clock entry already exists for this assignment", internal.ErrCodeOpenClockEntry)
	ErrNoOpenEntry     = internal.NewConflictError("no open clock entry for this assignment", internal.ErrCodeNoOpenClockEntry)
	ErrShiftCompleted  = internal.NewConflictError("shift is already completed; time entries are immutable", internal.ErrCodeStateConflict)
)

func FromDataModel(e *clockentryDatamodel.ClockEntry) *ClockEntry {
	return &ClockEntry{
		ID:           e.ID,
		AssignmentID: e.AssignmentID,
		Ordinal:      e.Ordinal,
		ClockIn:      e.ClockIn,
		ClockOut:     e.ClockOut,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromDataModelSlice(entries []*clockentryDatamodel.ClockEntry) []*ClockEntry {
	result := make([]*ClockEntry, len(entries))
	for i, e := range entries {
		result[i] = FromDataModel(e)
	}
	return result
}
