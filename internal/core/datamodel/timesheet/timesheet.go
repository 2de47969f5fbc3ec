package timesheet

import "time"

// Timesheet statuses. The post-client, pre-completion state is canonically
// pending_manager_approval everywhere in this codebase.
const (
	StatusPendingClientApproval  = "pending_client_approval"
	StatusPendingManagerApproval = "pending_manager_approval"
	StatusCompleted              = "completed"
	StatusRejected               = "rejected"
)

type Timesheet struct {
	ID                int64      `gorm:"primaryKey"`
	ShiftID           int64      `gorm:"column:shift_id;uniqueIndex;not null"`
	Status            string     `gorm:"column:status;not null"`
	SubmittedBy       *int64     `gorm:"column:submitted_by"`
	SubmittedAt       *time.Time `gorm:"column:submitted_at"`
	ClientApprovedBy  *int64     `gorm:"column:client_approved_by"`
	ClientApprovedAt  *time.Time `gorm:"column:client_approved_at"`
	ClientSignature   *string    `gorm:"column:client_signature"`
	ManagerApprovedBy *int64     `gorm:"column:manager_approved_by"`
	ManagerApprovedAt *time.Time `gorm:"column:manager_approved_at"`
	ManagerSignature  *string    `gorm:"column:manager_signature"`
	RejectionReason   *string    `gorm:"column:rejection_reason"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (Timesheet) TableName() string {
	return "timesheets"
}
