package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	"github.com/frahmantamala/crew-timekeeping/internal/core/events"
	shiftDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/shift"
	timesheetDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/timesheet"
	"github.com/frahmantamala/crew-timekeeping/internal/permission"
	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
)

// Repository defines the data access methods for timesheets and their shift.
// ConditionalUpdateTimesheet must only commit when the row still holds
// expectedStatus and report whether it did; that compare-and-swap is what
// makes concurrent duplicate approvals safe.
type Repository interface {
	GetShift(shiftID int64) (*shiftDatamodel.Shift, error)
	UpdateShiftStatus(shiftID int64, status string) error
	ListAssignments(shiftID int64) ([]*shiftDatamodel.Assignment, error)
	CountAssignmentsNotEnded(shiftID int64) (int64, error)
	GetTimesheet(id int64) (*timesheetDatamodel.Timesheet, error)
	GetTimesheetByShift(shiftID int64) (*timesheetDatamodel.Timesheet, error)
	CreateTimesheet(ts *timesheetDatamodel.Timesheet) error
	ConditionalUpdateTimesheet(id int64, expectedStatus string, patch map[string]interface{}) (bool, error)
}

// PermissionResolver gates every transition.
type PermissionResolver interface {
	Resolve(actor *auth.User, shiftID int64) (permission.Resolution, error)
}

// TimeAdjuster supplies adjusted entries for the projection.
type TimeAdjuster interface {
	AdjustedEntries(shiftID int64) ([]*timeclock.AdjustedEntry, timeclock.ChangeSummary, error)
}

// EventPublisher receives read-only events after a transition commits.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service owns the timesheet lifecycle. No other component mutates a
// timesheet row.
type Service struct {
	repo      Repository
	resolver  PermissionResolver
	adjuster  TimeAdjuster
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo Repository, resolver PermissionResolver, adjuster TimeAdjuster, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		adjuster:  adjuster,
		publisher: publisher,
		logger:    logger,
	}
}

// Finalize submits the shift's hours for approval: it creates the timesheet
// (or revives a rejected one), moves it to pending_client_approval and marks
// the shift completed. Every assignment must have ended its shift first.
func (s *Service) Finalize(actor *auth.User, shiftID int64) (*Timesheet, error) {
	shift, err := s.repo.GetShift(shiftID)
	if err != nil {
		return nil, internal.ErrShiftNotFound
	}

	if err := s.requireShiftAuthority(actor, shiftID); err != nil {
		return nil, err
	}

	unfinished, err := s.repo.CountAssignmentsNotEnded(shiftID)
	if err != nil {
		s.logger.Error("failed to count unfinished assignments", "error", err, "shift_id", shiftID)
		return nil, internal.NewStorageError("failed to count unfinished assignments", err)
	}
	if unfinished > 0 {
		s.logger.Warn("finalize rejected: assignments still open",
			"shift_id", shiftID,
			"unfinished", unfinished)
		return nil, internal.NewValidationError(
			fmt.Sprintf("%d assignments have not ended their shift", unfinished),
			internal.ErrCodeShiftNotEnded)
	}

	now := time.Now()
	row, err := s.repo.GetTimesheetByShift(shiftID)
	switch {
	case err == nil:
		// Re-finalization is only legal from rejected.
		if row.Status != StatusRejected {
			return nil, ErrStateConflict
		}
		ok, casErr := s.repo.ConditionalUpdateTimesheet(row.ID, StatusRejected, map[string]interface{}{
			"status":           StatusPendingClientApproval,
			"submitted_by":     actor.ID,
			"submitted_at":     now,
			"rejection_reason": nil,
			"updated_at":       now,
		})
		if casErr != nil {
			s.logger.Error("failed to re-finalize timesheet", "error", casErr, "timesheet_id", row.ID)
			return nil, internal.NewStorageError("failed to finalize timesheet", casErr)
		}
		if !ok {
			return nil, ErrStateConflict
		}
	case errors.Is(err, ErrTimesheetMissing):
		row = &timesheetDatamodel.Timesheet{
			ShiftID:     shiftID,
			Status:      StatusPendingClientApproval,
			SubmittedBy: &actor.ID,
			SubmittedAt: &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if createErr := s.repo.CreateTimesheet(row); createErr != nil {
			// A concurrent finalize created the row first.
			if errors.Is(createErr, ErrDuplicateTimesheet) {
				return nil, ErrStateConflict
			}
			s.logger.Error("failed to create timesheet", "error", createErr, "shift_id", shiftID)
			return nil, internal.NewStorageError("failed to create timesheet", createErr)
		}
	default:
		s.logger.Error("failed to load timesheet", "error", err, "shift_id", shiftID)
		return nil, internal.NewStorageError("failed to load timesheet", err)
	}

	if err := s.repo.UpdateShiftStatus(shiftID, shiftDatamodel.StatusCompleted); err != nil {
		s.logger.Error("failed to mark shift completed", "error", err, "shift_id", shiftID)
		return nil, internal.NewStorageError("failed to update shift status", err)
	}

	s.logger.Info("timesheet finalized",
		"timesheet_id", row.ID,
		"shift_id", shiftID,
		"submitted_by", actor.ID)

	s.publish(events.NewTimesheetFinalizedEvent(row.ID, shiftID, actor.ID, s.recipients(shift)))

	return s.reload(row.ID)
}

// ClientApprove moves pending_client_approval → pending_manager_approval.
// Allowed for management, anyone the resolver allows on the shift, or a
// client-role user tied to the shift's client.
func (s *Service) ClientApprove(actor *auth.User, timesheetID int64, dto ApproveDTO) (*Timesheet, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetTimesheet(timesheetID)
	if err != nil {
		return nil, internal.ErrTimesheetNotFound
	}

	shift, err := s.repo.GetShift(row.ShiftID)
	if err != nil {
		return nil, internal.ErrShiftNotFound
	}

	if err := s.requireClientApprovalAuthority(actor, shift); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.repo.ConditionalUpdateTimesheet(row.ID, StatusPendingClientApproval, map[string]interface{}{
		"status":             StatusPendingManagerApproval,
		"client_approved_by": actor.ID,
		"client_approved_at": now,
		"client_signature":   dto.Signature,
		"updated_at":         now,
	})
	if err != nil {
		s.logger.Error("failed to apply client approval", "error", err, "timesheet_id", row.ID)
		return nil, internal.NewStorageError("failed to apply client approval", err)
	}
	if !ok {
		return nil, ErrStateConflict
	}

	s.logger.Info("timesheet client-approved", "timesheet_id", row.ID, "shift_id", row.ShiftID, "actor_id", actor.ID)
	s.publish(events.NewTimesheetClientApprovedEvent(row.ID, row.ShiftID, actor.ID, s.recipients(shift)))

	return s.reload(row.ID)
}

// ManagerApprove moves pending_manager_approval → completed. Management only.
func (s *Service) ManagerApprove(actor *auth.User, timesheetID int64, dto ApproveDTO) (*Timesheet, error) {
	if !actor.Role.IsManagement() {
		s.logger.Warn("manager approval denied: management role required", "actor_id", actor.ID, "role", actor.Role)
		return nil, ErrManagementRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetTimesheet(timesheetID)
	if err != nil {
		return nil, internal.ErrTimesheetNotFound
	}

	now := time.Now()
	ok, err := s.repo.ConditionalUpdateTimesheet(row.ID, StatusPendingManagerApproval, map[string]interface{}{
		"status":              StatusCompleted,
		"manager_approved_by": actor.ID,
		"manager_approved_at": now,
		"manager_signature":   dto.Signature,
		"updated_at":          now,
	})
	if err != nil {
		s.logger.Error("failed to apply manager approval", "error", err, "timesheet_id", row.ID)
		return nil, internal.NewStorageError("failed to apply manager approval", err)
	}
	if !ok {
		return nil, ErrStateConflict
	}

	// The shift was already completed at finalize; keep it that way even if
	// an intermediate reject reverted it.
	if err := s.repo.UpdateShiftStatus(row.ShiftID, shiftDatamodel.StatusCompleted); err != nil {
		s.logger.Error("failed to mark shift completed", "error", err, "shift_id", row.ShiftID)
		return nil, internal.NewStorageError("failed to update shift status", err)
	}

	s.logger.Info("timesheet manager-approved", "timesheet_id", row.ID, "shift_id", row.ShiftID, "actor_id", actor.ID)
	s.publish(events.NewTimesheetManagerApprovedEvent(row.ID, row.ShiftID, actor.ID, nil))

	return s.reload(row.ID)
}

// Reject is terminal for the timesheet but reverts the shift to in-progress
// so it can be corrected and re-finalized. Management only.
func (s *Service) Reject(actor *auth.User, timesheetID int64, dto RejectDTO) (*Timesheet, error) {
	if !actor.Role.IsManagement() {
		s.logger.Warn("rejection denied: management role required", "actor_id", actor.ID, "role", actor.Role)
		return nil, ErrManagementRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetTimesheet(timesheetID)
	if err != nil {
		return nil, internal.ErrTimesheetNotFound
	}
	if row.Status != StatusPendingClientApproval && row.Status != StatusPendingManagerApproval {
		return nil, ErrStateConflict
	}

	now := time.Now()
	ok, err := s.repo.ConditionalUpdateTimesheet(row.ID, row.Status, map[string]interface{}{
		"status":           StatusRejected,
		"rejection_reason": dto.Reason,
		"updated_at":       now,
	})
	if err != nil {
		s.logger.Error("failed to reject timesheet", "error", err, "timesheet_id", row.ID)
		return nil, internal.NewStorageError("failed to reject timesheet", err)
	}
	if !ok {
		return nil, ErrStateConflict
	}

	if err := s.repo.UpdateShiftStatus(row.ShiftID, shiftDatamodel.StatusInProgress); err != nil {
		s.logger.Error("failed to revert shift status", "error", err, "shift_id", row.ShiftID)
		return nil, internal.NewStorageError("failed to update shift status", err)
	}

	s.logger.Info("timesheet rejected",
		"timesheet_id", row.ID,
		"shift_id", row.ShiftID,
		"actor_id", actor.ID,
		"reason", dto.Reason)
	s.publish(events.NewTimesheetRejectedEvent(row.ID, row.ShiftID, actor.ID, dto.Reason, nil))

	return s.reload(row.ID)
}

// GetProjection assembles the read-only view: timesheet state plus each
// worker's adjusted hours. Downstream consumers never write back.
func (s *Service) GetProjection(timesheetID int64) (*Projection, error) {
	row, err := s.repo.GetTimesheet(timesheetID)
	if err != nil {
		return nil, internal.ErrTimesheetNotFound
	}

	shift, err := s.repo.GetShift(row.ShiftID)
	if err != nil {
		return nil, internal.ErrShiftNotFound
	}

	assignments, err := s.repo.ListAssignments(row.ShiftID)
	if err != nil {
		s.logger.Error("failed to list assignments", "error", err, "shift_id", row.ShiftID)
		return nil, internal.NewStorageError("failed to list assignments", err)
	}

	entries, summary, err := s.adjuster.AdjustedEntries(row.ShiftID)
	if err != nil {
		return nil, err
	}

	byAssignment := make(map[int64][]*timeclock.AdjustedEntry)
	for _, e := range entries {
		byAssignment[e.AssignmentID] = append(byAssignment[e.AssignmentID], e)
	}

	projection := &Projection{
		Timesheet:   FromDataModel(row),
		ShiftStatus: shift.Status,
		Workers:     make([]WorkerHours, 0, len(assignments)),
		Adjustments: summary,
	}
	for _, a := range assignments {
		worker := WorkerHours{
			AssignmentID: a.ID,
			WorkerID:     a.WorkerID,
			RoleCode:     a.RoleCode,
			Entries:      byAssignment[a.ID],
		}
		var total time.Duration
		for _, e := range worker.Entries {
			total += e.Duration()
		}
		worker.TotalHours = roundHours(total)
		projection.TotalHours += worker.TotalHours
		projection.Workers = append(projection.Workers, worker)
	}
	projection.TotalHours = math.Round(projection.TotalHours*100) / 100

	return projection, nil
}

func (s *Service) requireShiftAuthority(actor *auth.User, shiftID int64) error {
	resolution, err := s.resolver.Resolve(actor, shiftID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return appErr
		}
		s.logger.Error("permission resolution failed", "error", err, "shift_id", shiftID, "actor_id", actor.ID)
		return internal.NewStorageError("failed to resolve permissions", err)
	}
	if !resolution.Allowed {
		s.logger.Warn("transition denied",
			"shift_id", shiftID,
			"actor_id", actor.ID,
			"source", resolution.Source)
		return internal.ErrUnauthorizedActor
	}
	return nil
}

func (s *Service) requireClientApprovalAuthority(actor *auth.User, shift *shiftDatamodel.Shift) error {
	if actor.Role == auth.RoleClient {
		if actor.ClientID != nil && *actor.ClientID == shift.ClientID {
			return nil
		}
		s.logger.Warn("client approval denied: actor not tied to shift client",
			"shift_id", shift.ID,
			"actor_id", actor.ID)
		return internal.ErrUnauthorizedActor
	}
	return s.requireShiftAuthority(actor, shift.ID)
}

// publish runs strictly after the state mutation commits; listener failures
// are logged inside the bus and never surface here.
func (s *Service) publish(event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		s.logger.Error("failed to publish timesheet event", "error", err, "event_type", event.EventType())
	}
}

func (s *Service) recipients(shift *shiftDatamodel.Shift) []int64 {
	if shift.CrewChiefID != nil {
		return []int64{*shift.CrewChiefID}
	}
	return nil
}

func (s *Service) reload(id int64) (*Timesheet, error) {
	row, err := s.repo.GetTimesheet(id)
	if err != nil {
		s.logger.Error("failed to reload timesheet", "error", err, "timesheet_id", id)
		return nil, internal.NewStorageError("failed to reload timesheet", err)
	}
	return FromDataModel(row), nil
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
