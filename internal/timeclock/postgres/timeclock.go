package postgres

import (
	"errors"
	"time"

	clockentryDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/clockentry"
	shiftDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/shift"
	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
	"gorm.io/gorm"
)

// TimeclockRepository implements the timeclock.Repository interface using GORM
type TimeclockRepository struct {
	db *gorm.DB
}

func NewTimeclockRepository(db *gorm.DB) timeclock.Repository {
	return &TimeclockRepository{db: db}
}

func (r *TimeclockRepository) GetAssignment(id int64) (*shiftDatamodel.Assignment, error) {
	var assignment shiftDatamodel.Assignment
	if err := r.db.Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *TimeclockRepository) GetShift(id int64) (*shiftDatamodel.Shift, error) {
	var shift shiftDatamodel.Shift
	if err := r.db.Where("id = ?", id).First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

// CreateEntryIfNoneOpen inserts the next-ordinal entry only when no entry on
// the assignment is still open. The guard lives in the statement itself so a
// concurrent duplicate clock-in loses the race instead of opening a second
// entry.
func (r *TimeclockRepository) CreateEntryIfNoneOpen(assignmentID int64, clockIn time.Time) (*clockentryDatamodel.ClockEntry, error) {
	now := time.Now()
	res := r.db.Exec(`
		INSERT INTO clock_entries (assignment_id, ordinal, clock_in, created_at, updated_at)
		SELECT ?, COALESCE(MAX(ordinal), 0) + 1, ?, ?, ?
		FROM clock_entries
		WHERE assignment_id = ?
		HAVING NOT EXISTS (
			SELECT 1 FROM clock_entries WHERE assignment_id = ? AND clock_out IS NULL
		)`,
		assignmentID, clockIn, now, now, assignmentID, assignmentID)
	if res.Error != nil {
		return nil, conflictFromInsert(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, timeclock.ErrOpenEntryExists
	}

	var entry clockentryDatamodel.ClockEntry
	err := r.db.Where("assignment_id = ? AND clock_out IS NULL", assignmentID).
		Order("ordinal DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// conflictFromInsert maps the unique violation a racing clock-in takes on
// the one-open-entry index after slipping past the NOT EXISTS guard onto the
// same conflict the guard reports.
func conflictFromInsert(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return timeclock.ErrOpenEntryExists
	}
	return err
}

// CloseOpenEntry stamps the clock-out on the assignment's single open entry.
func (r *TimeclockRepository) CloseOpenEntry(assignmentID int64, clockOut time.Time) (*clockentryDatamodel.ClockEntry, error) {
	res := r.db.Model(&clockentryDatamodel.ClockEntry{}).
		Where("assignment_id = ? AND clock_out IS NULL", assignmentID).
		Updates(map[string]interface{}{
			"clock_out":  clockOut,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, timeclock.ErrNoOpenEntry
	}

	var entry clockentryDatamodel.ClockEntry
	err := r.db.Where("assignment_id = ?", assignmentID).
		Order("ordinal DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *TimeclockRepository) ListEntriesByShift(shiftID int64) ([]*clockentryDatamodel.ClockEntry, error) {
	var entries []*clockentryDatamodel.ClockEntry
	err := r.db.
		Joins("JOIN assignments ON assignments.id = clock_entries.assignment_id").
		Where("assignments.shift_id = ?", shiftID).
		Order("clock_entries.assignment_id, clock_entries.ordinal").
		Find(&entries).Error
	return entries, err
}

func (r *TimeclockRepository) CountOpenEntriesByShift(shiftID int64) (int64, error) {
	var count int64
	err := r.db.Model(&clockentryDatamodel.ClockEntry{}).
		Joins("JOIN assignments ON assignments.id = clock_entries.assignment_id").
		Where("assignments.shift_id = ? AND clock_entries.clock_out IS NULL", shiftID).
		Count(&count).Error
	return count, err
}

func (r *TimeclockRepository) UpdateAssignmentStatus(assignmentID int64, status string) error {
	return r.db.Model(&shiftDatamodel.Assignment{}).
		Where("id = ?", assignmentID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *TimeclockRepository) EndShiftAssignments(shiftID int64) (int64, error) {
	res := r.db.Model(&shiftDatamodel.Assignment{}).
		Where("shift_id = ? AND status <> ?", shiftID, shiftDatamodel.AssignmentShiftEnded).
		Updates(map[string]interface{}{
			"status":     shiftDatamodel.AssignmentShiftEnded,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}
