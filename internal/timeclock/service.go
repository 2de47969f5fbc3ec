package timeclock

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	clockentryDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/clockentry"
	shiftDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/shift"

	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	"github.com/frahmantamala/crew-timekeeping/internal/permission"
)

// Repository defines the data access methods for clock entries and the
// assignment lifecycle. CreateEntryIfNoneOpen and CloseOpenEntry must be
// atomic conditional operations: a concurrent duplicate clock action loses
// deterministically instead of producing two open entries.
type Repository interface {
	GetAssignment(id int64) (*shiftDatamodel.Assignment, error)
	GetShift(id int64) (*shiftDatamodel.Shift, error)
	CreateEntryIfNoneOpen(assignmentID int64, clockIn time.Time) (*clockentryDatamodel.ClockEntry, error)
	CloseOpenEntry(assignmentID int64, clockOut time.Time) (*clockentryDatamodel.ClockEntry, error)
	ListEntriesByShift(shiftID int64) ([]*clockentryDatamodel.ClockEntry, error)
	CountOpenEntriesByShift(shiftID int64) (int64, error)
	UpdateAssignmentStatus(assignmentID int64, status string) error
	EndShiftAssignments(shiftID int64) (int64, error)
}

// PermissionResolver gates who may manage time entries beyond their own.
type PermissionResolver interface {
	Resolve(actor *auth.User, shiftID int64) (permission.Resolution, error)
}

// Service handles clock actions and time adjustment for one shift.
type Service struct {
	repo     Repository
	resolver PermissionResolver
	logger   *slog.Logger
}

func NewService(repo Repository, resolver PermissionResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// ClockIn opens a new clock entry for the assignment. Workers clock
// themselves; anyone else needs crew-chief authority on the shift.
func (s *Service) ClockIn(actor *auth.User, assignmentID int64, at time.Time) (*ClockEntry, error) {
	assignment, shift, err := s.loadAssignment(actor, assignmentID)
	if err != nil {
		return nil, err
	}

	if at.IsZero() {
		at = time.Now()
	}

	entry, err := s.repo.CreateEntryIfNoneOpen(assignment.ID, at)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to create clock entry", "error", err, "assignment_id", assignment.ID)
		return nil, internal.NewStorageError("failed to create clock entry", err)
	}

	if err := s.repo.UpdateAssignmentStatus(assignment.ID, shiftDatamodel.AssignmentClockedIn); err != nil {
		s.logger.Error("failed to update assignment status", "error", err, "assignment_id", assignment.ID)
		return nil, internal.NewStorageError("failed to update assignment status", err)
	}

	s.logger.Info("worker clocked in",
		"assignment_id", assignment.ID,
		"shift_id", shift.ID,
		"ordinal", entry.Ordinal,
		"actor_id", actor.ID)

	return FromDataModel(entry), nil
}

// ClockOut closes the assignment's open entry.
func (s *Service) ClockOut(actor *auth.User, assignmentID int64, at time.Time) (*ClockEntry, error) {
	assignment, shift, err := s.loadAssignment(actor, assignmentID)
	if err != nil {
		return nil, err
	}

	if at.IsZero() {
		at = time.Now()
	}

	entry, err := s.repo.CloseOpenEntry(assignment.ID, at)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to close clock entry", "error", err, "assignment_id", assignment.ID)
		return nil, internal.NewStorageError("failed to close clock entry", err)
	}

	if err := s.repo.UpdateAssignmentStatus(assignment.ID, shiftDatamodel.AssignmentClockedOut); err != nil {
		s.logger.Error("failed to update assignment status", "error", err, "assignment_id", assignment.ID)
		return nil, internal.NewStorageError("failed to update assignment status", err)
	}

	s.logger.Info("worker clocked out",
		"assignment_id", assignment.ID,
		"shift_id", shift.ID,
		"ordinal", entry.Ordinal,
		"actor_id", actor.ID)

	return FromDataModel(entry), nil
}

// EndShift marks every assignment on the shift as shift-ended, the
// precondition for finalizing the timesheet. Open entries must be clocked
// out first.
func (s *Service) EndShift(actor *auth.User, shiftID int64) (int64, error) {
	shift, err := s.repo.GetShift(shiftID)
	if err != nil {
		return 0, internal.ErrShiftNotFound
	}
	if shift.Status == shiftDatamodel.StatusCompleted {
		return 0, ErrShiftCompleted
	}

	if err := s.requireManageAuthority(actor, shiftID); err != nil {
		return 0, err
	}

	open, err := s.repo.CountOpenEntriesByShift(shiftID)
	if err != nil {
		s.logger.Error("failed to count open entries", "error", err, "shift_id", shiftID)
		return 0, internal.NewStorageError("failed to count open entries", err)
	}
	if open > 0 {
		return 0, internal.NewValidationError(
			fmt.Sprintf("%d clock entries are still open on this shift", open),
			internal.ErrCodeOpenClockEntry)
	}

	ended, err := s.repo.EndShiftAssignments(shiftID)
	if err != nil {
		s.logger.Error("failed to end shift assignments", "error", err, "shift_id", shiftID)
		return 0, internal.NewStorageError("failed to end shift assignments", err)
	}

	s.logger.Info("shift ended", "shift_id", shiftID, "assignments_ended", ended, "actor_id", actor.ID)
	return ended, nil
}

// AdjustedEntries runs the rounding and synchronization engines over all
// entries on the shift and returns the adjusted set plus the audit summary.
// The engines never fail; storage is the only error source here.
func (s *Service) AdjustedEntries(shiftID int64) ([]*AdjustedEntry, ChangeSummary, error) {
	rows, err := s.repo.ListEntriesByShift(shiftID)
	if err != nil {
		s.logger.Error("failed to list clock entries", "error", err, "shift_id", shiftID)
		return nil, ChangeSummary{}, internal.NewStorageError("failed to list clock entries", err)
	}

	adjusted, summary := Synchronize(FromDataModelSlice(rows))

	if len(summary.Adjustments) > 0 {
		s.logger.Info("clock entries synchronized",
			"shift_id", shiftID,
			"entries", len(adjusted),
			"snapped", len(summary.Adjustments))
	}

	return adjusted, summary, nil
}

// PreviewAdjustments is the dry-run used for audit display; it requires
// manage authority because it exposes every worker's times.
func (s *Service) PreviewAdjustments(actor *auth.User, shiftID int64) ([]*AdjustedEntry, ChangeSummary, error) {
	if _, err := s.repo.GetShift(shiftID); err != nil {
		return nil, ChangeSummary{}, internal.ErrShiftNotFound
	}
	if err := s.requireManageAuthority(actor, shiftID); err != nil {
		return nil, ChangeSummary{}, err
	}
	return s.AdjustedEntries(shiftID)
}

func (s *Service) loadAssignment(actor *auth.User, assignmentID int64) (*shiftDatamodel.Assignment, *shiftDatamodel.Shift, error) {
	assignment, err := s.repo.GetAssignment(assignmentID)
	if err != nil {
		return nil, nil, internal.ErrAssignmentNotFound
	}

	shift, err := s.repo.GetShift(assignment.ShiftID)
	if err != nil {
		s.logger.Error("assignment references missing shift", "assignment_id", assignmentID, "shift_id", assignment.ShiftID)
		return nil, nil, internal.ErrShiftNotFound
	}
	if shift.Status == shiftDatamodel.StatusCompleted {
		return nil, nil, ErrShiftCompleted
	}

	if actor.ID != assignment.WorkerID {
		if err := s.requireManageAuthority(actor, shift.ID); err != nil {
			return nil, nil, err
		}
	}

	return assignment, shift, nil
}

func (s *Service) requireManageAuthority(actor *auth.User, shiftID int64) error {
	resolution, err := s.resolver.Resolve(actor, shiftID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return appErr
		}
		s.logger.Error("permission resolution failed", "error", err, "shift_id", shiftID, "actor_id", actor.ID)
		return internal.NewStorageError("failed to resolve permissions", err)
	}
	if !resolution.Allowed {
		s.logger.Warn("time entry management denied",
			"shift_id", shiftID,
			"actor_id", actor.ID,
			"source", resolution.Source)
		return internal.ErrUnauthorizedActor
	}
	return nil
}
