package timesheet

import (
	"github.com/frahmantamala/crew-timekeeping/internal"
	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
)

type ApproveDTO struct {
	Signature string `json:"signature"`
}

func (dto ApproveDTO) Validate() error {
	if dto.Signature == "" {
		return internal.NewValidationFieldError("signature", "signature is required", internal.ErrCodeInvalidSignature)
	}
	return nil
}

type RejectDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectDTO) Validate() error {
	if dto.Reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required when rejecting a timesheet", internal.ErrCodeInvalidReason)
	}
	return nil
}

// WorkerHours is one worker's adjusted payable time on the shift.
type WorkerHours struct {
	AssignmentID int64                      `json:"assignment_id"`
	WorkerID     int64                      `json:"worker_id"`
	RoleCode     string                     `json:"role_code"`
	Entries      []*timeclock.AdjustedEntry `json:"entries"`
	TotalHours   float64                    `json:"total_hours"`
}

// Projection is the read-only view consumed by export/PDF/email components.
type Projection struct {
	Timesheet   *Timesheet              `json:"timesheet"`
	ShiftStatus string                  `json:"shift_status"`
	Workers     []WorkerHours           `json:"workers"`
	TotalHours  float64                 `json:"total_hours"`
	Adjustments timeclock.ChangeSummary `json:"adjustments"`
}
