package clockentry

import "time"

// ClockEntry stores raw clock instants. Rounding and synchronization are
// applied in memory; the raw values are never rewritten.
type ClockEntry struct {
	ID           int64      `gorm:"primaryKey"`
	AssignmentID int64      `gorm:"column:assignment_id;not null;index"`
	Ordinal      int        `gorm:"column:ordinal;not null"`
	ClockIn      time.Time  `gorm:"column:clock_in;not null"`
	ClockOut     *time.Time `gorm:"column:clock_out"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (ClockEntry) TableName() string {
	return "clock_entries"
}

// IsOpen reports whether the entry is still waiting for a clock-out.
func (e *ClockEntry) IsOpen() bool {
	return e.ClockOut == nil
}
