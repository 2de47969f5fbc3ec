package timesheet

import (
	"errors"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	timesheetDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/timesheet"
)

// Status constants re-exported for callers of the domain package. The state
// graph is fixed: draft (no row yet) → pending_client_approval →
// pending_manager_approval → completed, with rejected terminal from either
// pending state.
const (
	StatusPendingClientApproval  = timesheetDatamodel.StatusPendingClientApproval
	StatusPendingManagerApproval = timesheetDatamodel.StatusPendingManagerApproval
	StatusCompleted              = timesheetDatamodel.StatusCompleted
	StatusRejected               = timesheetDatamodel.StatusRejected
)

type Timesheet struct {
	ID                int64      `json:"id"`
	ShiftID           int64      `json:"shift_id"`
	Status            string     `json:"status"`
	SubmittedBy       *int64     `json:"submitted_by,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	ClientApprovedBy  *int64     `json:"client_approved_by,omitempty"`
	ClientApprovedAt  *time.Time `json:"client_approved_at,omitempty"`
	ClientSignature   *string    `json:"client_signature,omitempty"`
	ManagerApprovedBy *int64     `json:"manager_approved_by,omitempty"`
	ManagerApprovedAt *time.Time `json:"manager_approved_at,omitempty"`
	ManagerSignature  *string    `json:"manager_signature,omitempty"`
	RejectionReason   *string    `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (t *Timesheet) IsPending() bool {
	return t.Status == StatusPendingClientApproval || t.Status == StatusPendingManagerApproval
}

// Domain errors as AppErrors so handlers map them without bespoke switches.
var (
	ErrStateConflict = internal.NewConflictError(
		"timesheet is not in the required state for this transition",
		internal.ErrCodeStateConflict)
	// Repository-level sentinels; the service translates both into
	// ErrStateConflict or a storage error before they reach a handler.
	ErrTimesheetMissing   = errors.New("timesheet not found for shift")
	ErrDuplicateTimesheet = errors.New("timesheet already exists for shift")

	ErrManagementRequired = internal.NewForbiddenError("manager or admin role required", internal.ErrCodeUnauthorizedActor)
)

func FromDataModel(t *timesheetDatamodel.Timesheet) *Timesheet {
	return &Timesheet{
		ID:                t.ID,
		ShiftID:           t.ShiftID,
		Status:            t.Status,
		SubmittedBy:       t.SubmittedBy,
		SubmittedAt:       t.SubmittedAt,
		ClientApprovedBy:  t.ClientApprovedBy,
		ClientApprovedAt:  t.ClientApprovedAt,
		ClientSignature:   t.ClientSignature,
		ManagerApprovedBy: t.ManagerApprovedBy,
		ManagerApprovedAt: t.ManagerApprovedAt,
		ManagerSignature:  t.ManagerSignature,
		RejectionReason:   t.RejectionReason,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}
