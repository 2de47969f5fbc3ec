package shift

import "time"

// Shift status values. pending_client_approval / pending_manager_approval are
// mirrored on the timesheet; the shift itself only tracks the scheduling
// lifecycle.
const (
	StatusUpcoming   = "upcoming"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Assignment status values.
const (
	AssignmentNotStarted = "not_started"
	AssignmentClockedIn  = "clocked_in"
	AssignmentClockedOut = "clocked_out"
	AssignmentShiftEnded = "shift_ended"
)

type Shift struct {
	ID          int64     `gorm:"primaryKey"`
	JobID       int64     `gorm:"column:job_id;not null"`
	ClientID    int64     `gorm:"column:client_id;not null"`
	CrewChiefID *int64    `gorm:"column:crew_chief_id"`
	StartsAt    time.Time `gorm:"column:starts_at"`
	EndsAt      time.Time `gorm:"column:ends_at"`
	Status      string    `gorm:"column:status;default:upcoming"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (Shift) TableName() string {
	return "shifts"
}

type Assignment struct {
	ID        int64     `gorm:"primaryKey"`
	ShiftID   int64     `gorm:"column:shift_id;not null;index"`
	WorkerID  int64     `gorm:"column:worker_id;not null"`
	RoleCode  string    `gorm:"column:role_code;not null"`
	Status    string    `gorm:"column:status;default:not_started"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}
