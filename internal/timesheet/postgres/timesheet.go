package postgres

import (
	"errors"
	"time"

	shiftDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/shift"
	timesheetDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/timesheet"
	"github.com/frahmantamala/crew-timekeeping/internal/timesheet"
	"gorm.io/gorm"
)

// TimesheetRepository implements the timesheet.Repository interface using GORM
type TimesheetRepository struct {
	db *gorm.DB
}

func NewTimesheetRepository(db *gorm.DB) timesheet.Repository {
	return &TimesheetRepository{db: db}
}

func (r *TimesheetRepository) GetShift(shiftID int64) (*shiftDatamodel.Shift, error) {
	var shift shiftDatamodel.Shift
	if err := r.db.Where("id = ?", shiftID).First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *TimesheetRepository) UpdateShiftStatus(shiftID int64, status string) error {
	return r.db.Model(&shiftDatamodel.Shift{}).
		Where("id = ?", shiftID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *TimesheetRepository) ListAssignments(shiftID int64) ([]*shiftDatamodel.Assignment, error) {
	var assignments []*shiftDatamodel.Assignment
	err := r.db.Where("shift_id = ?", shiftID).Order("id").Find(&assignments).Error
	return assignments, err
}

func (r *TimesheetRepository) CountAssignmentsNotEnded(shiftID int64) (int64, error) {
	var count int64
	err := r.db.Model(&shiftDatamodel.Assignment{}).
		Where("shift_id = ? AND status <> ?", shiftID, shiftDatamodel.AssignmentShiftEnded).
		Count(&count).Error
	return count, err
}

func (r *TimesheetRepository) GetTimesheet(id int64) (*timesheetDatamodel.Timesheet, error) {
	var ts timesheetDatamodel.Timesheet
	if err := r.db.Where("id = ?", id).First(&ts).Error; err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *TimesheetRepository) GetTimesheetByShift(shiftID int64) (*timesheetDatamodel.Timesheet, error) {
	var ts timesheetDatamodel.Timesheet
	if err := r.db.Where("shift_id = ?", shiftID).First(&ts).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, timesheet.ErrTimesheetMissing
		}
		return nil, err
	}
	return &ts, nil
}

// CreateTimesheet relies on the unique index on shift_id: when two finalize
// calls race, the loser surfaces ErrDuplicateTimesheet instead of inserting a
// second row.
func (r *TimesheetRepository) CreateTimesheet(ts *timesheetDatamodel.Timesheet) error {
	if err := r.db.Create(ts).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return timesheet.ErrDuplicateTimesheet
		}
		return err
	}
	return nil
}

// ConditionalUpdateTimesheet applies patch only while the row still holds
// expectedStatus. RowsAffected tells the caller whether its transition won.
func (r *TimesheetRepository) ConditionalUpdateTimesheet(id int64, expectedStatus string, patch map[string]interface{}) (bool, error) {
	res := r.db.Model(&timesheetDatamodel.Timesheet{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(patch)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
