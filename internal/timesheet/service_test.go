package timesheet_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	"github.com/frahmantamala/crew-timekeeping/internal/core/events"
	shiftDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/shift"
	timesheetDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/timesheet"
	"github.com/frahmantamala/crew-timekeeping/internal/permission"
	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
	"github.com/frahmantamala/crew-timekeeping/internal/timesheet"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTimesheet(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Timesheet Suite")
}

// MockTimesheetRepository implements timesheet.Repository with the same
// compare-and-swap semantics as the SQL implementation.
type MockTimesheetRepository struct {
	shifts      map[int64]*shiftDatamodel.Shift
	assignments map[int64]*shiftDatamodel.Assignment
	timesheets  map[int64]*timesheetDatamodel.Timesheet
	nextID      int64
	shouldFail  bool
	failError   error
}

func NewMockTimesheetRepository() *MockTimesheetRepository {
	return &MockTimesheetRepository{
		shifts:      make(map[int64]*shiftDatamodel.Shift),
		assignments: make(map[int64]*shiftDatamodel.Assignment),
		timesheets:  make(map[int64]*timesheetDatamodel.Timesheet),
		nextID:      1,
	}
}

func (m *MockTimesheetRepository) GetShift(shiftID int64) (*shiftDatamodel.Shift, error) {
	s, ok := m.shifts[shiftID]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (m *MockTimesheetRepository) UpdateShiftStatus(shiftID int64, status string) error {
	if m.shouldFail {
		return m.failError
	}
	if s, ok := m.shifts[shiftID]; ok {
		s.Status = status
	}
	return nil
}

func (m *MockTimesheetRepository) ListAssignments(shiftID int64) ([]*shiftDatamodel.Assignment, error) {
	var result []*shiftDatamodel.Assignment
	for _, a := range m.assignments {
		if a.ShiftID == shiftID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MockTimesheetRepository) CountAssignmentsNotEnded(shiftID int64) (int64, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	var count int64
	for _, a := range m.assignments {
		if a.ShiftID == shiftID && a.Status != shiftDatamodel.AssignmentShiftEnded {
			count++
		}
	}
	return count, nil
}

func (m *MockTimesheetRepository) GetTimesheet(id int64) (*timesheetDatamodel.Timesheet, error) {
	ts, ok := m.timesheets[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *ts
	return &copied, nil
}

func (m *MockTimesheetRepository) GetTimesheetByShift(shiftID int64) (*timesheetDatamodel.Timesheet, error) {
	for _, ts := range m.timesheets {
		if ts.ShiftID == shiftID {
			copied := *ts
			return &copied, nil
		}
	}
	return nil, timesheet.ErrTimesheetMissing
}

func (m *MockTimesheetRepository) CreateTimesheet(ts *timesheetDatamodel.Timesheet) error {
	if m.shouldFail {
		return m.failError
	}
	for _, existing := range m.timesheets {
		if existing.ShiftID == ts.ShiftID {
			return timesheet.ErrDuplicateTimesheet
		}
	}
	ts.ID = m.nextID
	m.nextID++
	copied := *ts
	m.timesheets[ts.ID] = &copied
	return nil
}

func (m *MockTimesheetRepository) ConditionalUpdateTimesheet(id int64, expectedStatus string, patch map[string]interface{}) (bool, error) {
	if m.shouldFail {
		return false, m.failError
	}
	ts, ok := m.timesheets[id]
	if !ok || ts.Status != expectedStatus {
		return false, nil
	}
	for key, value := range patch {
		switch key {
		case "status":
			ts.Status = value.(string)
		case "submitted_by":
			v := value.(int64)
			ts.SubmittedBy = &v
		case "submitted_at":
			v := value.(time.Time)
			ts.SubmittedAt = &v
		case "client_approved_by":
			v := value.(int64)
			ts.ClientApprovedBy = &v
		case "client_approved_at":
			v := value.(time.Time)
			ts.ClientApprovedAt = &v
		case "client_signature":
			v := value.(string)
			ts.ClientSignature = &v
		case "manager_approved_by":
			v := value.(int64)
			ts.ManagerApprovedBy = &v
		case "manager_approved_at":
			v := value.(time.Time)
			ts.ManagerApprovedAt = &v
		case "manager_signature":
			v := value.(string)
			ts.ManagerSignature = &v
		case "rejection_reason":
			if value == nil {
				ts.RejectionReason = nil
			} else {
				v := value.(string)
				ts.RejectionReason = &v
			}
		}
	}
	return true, nil
}

// MockAdjuster implements timesheet.TimeAdjuster for testing
type MockAdjuster struct {
	entries []*timeclock.AdjustedEntry
	summary timeclock.ChangeSummary
}

func (m *MockAdjuster) AdjustedEntries(shiftID int64) ([]*timeclock.AdjustedEntry, timeclock.ChangeSummary, error) {
	return m.entries, m.summary, nil
}

// MockShiftResolver implements timesheet.PermissionResolver for testing
type MockShiftResolver struct {
	allowed map[int64]bool
}

func (m *MockShiftResolver) Resolve(actor *auth.User, shiftID int64) (permission.Resolution, error) {
	if actor.Role.IsManagement() {
		return permission.Resolution{Allowed: true, Source: permission.SourceAdmin}, nil
	}
	if actor.Role == auth.RoleClient {
		return permission.Resolution{Allowed: false, Source: permission.SourceNone}, nil
	}
	if m.allowed[actor.ID] {
		return permission.Resolution{Allowed: true, Source: permission.SourceDesignated}, nil
	}
	return permission.Resolution{Allowed: false, Source: permission.SourceNone}, nil
}

// RecordingPublisher captures published events
type RecordingPublisher struct {
	published []events.Event
}

func (p *RecordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func (p *RecordingPublisher) types() []string {
	result := make([]string, len(p.published))
	for i, e := range p.published {
		result[i] = e.EventType()
	}
	return result
}

var _ = Describe("Timesheet Service", func() {
	var (
		repo      *MockTimesheetRepository
		resolver  *MockShiftResolver
		adjuster  *MockAdjuster
		publisher *RecordingPublisher
		service   *timesheet.Service

		chief   *auth.User
		manager *auth.User
		client  *auth.User
		worker  *auth.User
	)

	clientID := int64(9)
	otherClientID := int64(11)

	BeforeEach(func() {
		repo = NewMockTimesheetRepository()
		resolver = &MockShiftResolver{allowed: make(map[int64]bool)}
		adjuster = &MockAdjuster{}
		publisher = &RecordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = timesheet.NewService(repo, resolver, adjuster, publisher, logger)

		chief = &auth.User{ID: 2, Role: auth.RoleCrewChief}
		manager = &auth.User{ID: 1, Role: auth.RoleManager}
		client = &auth.User{ID: 5, Role: auth.RoleClient, ClientID: &clientID}
		worker = &auth.User{ID: 3, Role: auth.RoleEmployee}
		resolver.allowed[chief.ID] = true

		repo.shifts[100] = &shiftDatamodel.Shift{ID: 100, JobID: 7, ClientID: clientID, CrewChiefID: &chief.ID, Status: shiftDatamodel.StatusInProgress}
		repo.assignments[10] = &shiftDatamodel.Assignment{ID: 10, ShiftID: 100, WorkerID: worker.ID, RoleCode: "SH", Status: shiftDatamodel.AssignmentShiftEnded}
		repo.assignments[11] = &shiftDatamodel.Assignment{ID: 11, ShiftID: 100, WorkerID: chief.ID, RoleCode: "CC", Status: shiftDatamodel.AssignmentShiftEnded}
	})

	Describe("Finalize", func() {
		It("should create the timesheet pending client approval and complete the shift", func() {
			ts, err := service.Finalize(chief, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(ts.Status).To(Equal(timesheet.StatusPendingClientApproval))
			Expect(*ts.SubmittedBy).To(Equal(chief.ID))
			Expect(repo.shifts[100].Status).To(Equal(shiftDatamodel.StatusCompleted))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeTimesheetFinalized}))
		})

		It("should refuse while assignments have not ended their shift", func() {
			repo.assignments[10].Status = shiftDatamodel.AssignmentClockedIn

			_, err := service.Finalize(chief, 100)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeShiftNotEnded))
			Expect(appErr.Message).To(ContainSubstring("1 assignments"))
			Expect(publisher.published).To(BeEmpty())
		})

		It("should deny actors without crew chief authority", func() {
			_, err := service.Finalize(worker, 100)
			Expect(err).To(Equal(internal.ErrUnauthorizedActor))
		})

		It("should conflict when the timesheet is already pending", func() {
			_, err := service.Finalize(chief, 100)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Finalize(chief, 100)
			Expect(err).To(Equal(timesheet.ErrStateConflict))
		})

		It("should revive a rejected timesheet and clear the rejection reason", func() {
			ts, err := service.Finalize(chief, 100)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Reject(manager, ts.ID, timesheet.RejectDTO{Reason: "missing hours"})
			Expect(err).NotTo(HaveOccurred())

			revived, err := service.Finalize(chief, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(revived.ID).To(Equal(ts.ID))
			Expect(revived.Status).To(Equal(timesheet.StatusPendingClientApproval))
			Expect(revived.RejectionReason).To(BeNil())
		})
	})

	Describe("ClientApprove", func() {
		var tsID int64

		BeforeEach(func() {
			ts, err := service.Finalize(chief, 100)
			Expect(err).NotTo(HaveOccurred())
			tsID = ts.ID
			publisher.published = nil
		})

		It("should move to pending manager approval with the client signature", func() {
			ts, err := service.ClientApprove(client, tsID, timesheet.ApproveDTO{Signature: "data:image/png;base64,abc"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ts.Status).To(Equal(timesheet.StatusPendingManagerApproval))
			Expect(*ts.ClientApprovedBy).To(Equal(client.ID))
			Expect(*ts.ClientSignature).To(Equal("data:image/png;base64,abc"))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeTimesheetClientApproved}))
		})

		It("should allow the crew chief to approve on the client's behalf", func() {
			_, err := service.ClientApprove(chief, tsID, timesheet.ApproveDTO{Signature: "sig"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should deny a client bound to a different client account", func() {
			stranger := &auth.User{ID: 6, Role: auth.RoleClient, ClientID: &otherClientID}
			_, err := service.ClientApprove(stranger, tsID, timesheet.ApproveDTO{Signature: "sig"})
			Expect(err).To(Equal(internal.ErrUnauthorizedActor))
		})

		It("should require a signature", func() {
			_, err := service.ClientApprove(client, tsID, timesheet.ApproveDTO{})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should let exactly one of two competing approvals win", func() {
			_, err := service.ClientApprove(client, tsID, timesheet.ApproveDTO{Signature: "first"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ClientApprove(client, tsID, timesheet.ApproveDTO{Signature: "second"})
			Expect(err).To(Equal(timesheet.ErrStateConflict))

			stored, getErr := repo.GetTimesheet(tsID)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(*stored.ClientSignature).To(Equal("first"))
		})
	})

	Describe("ManagerApprove", func() {
		var tsID int64

		BeforeEach(func() {
			ts, err := service.Finalize(chief, 100)
			Expect(err).NotTo(HaveOccurred())
			tsID = ts.ID
		})

		It("should refuse before the client has approved", func() {
			_, err := service.ManagerApprove(manager, tsID, timesheet.ApproveDTO{Signature: "sig"})
			Expect(err).To(Equal(timesheet.ErrStateConflict))
		})

		It("should complete the timesheet after client approval", func() {
			_, err := service.ClientApprove(client, tsID, timesheet.ApproveDTO{Signature: "client-sig"})
			Expect(err).NotTo(HaveOccurred())

			ts, err := service.ManagerApprove(manager, tsID, timesheet.ApproveDTO{Signature: "manager-sig"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ts.Status).To(Equal(timesheet.StatusCompleted))
			Expect(*ts.ManagerApprovedBy).To(Equal(manager.ID))
			Expect(repo.shifts[100].Status).To(Equal(shiftDatamodel.StatusCompleted))
		})

		It("should refuse non-management actors regardless of grants", func() {
			_, err := service.ManagerApprove(chief, tsID, timesheet.ApproveDTO{Signature: "sig"})
			Expect(err).To(Equal(timesheet.ErrManagementRequired))
		})
	})

	Describe("Reject", func() {
		var tsID int64

		BeforeEach(func() {
			ts, err := service.Finalize(chief, 100)
			Expect(err).NotTo(HaveOccurred())
			tsID = ts.ID
		})

		It("should reject a pending timesheet and revert the shift", func() {
			ts, err := service.Reject(manager, tsID, timesheet.RejectDTO{Reason: "hours look wrong"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ts.Status).To(Equal(timesheet.StatusRejected))
			Expect(*ts.RejectionReason).To(Equal("hours look wrong"))
			Expect(repo.shifts[100].Status).To(Equal(shiftDatamodel.StatusInProgress))
		})

		It("should reject from pending manager approval too", func() {
			_, err := service.ClientApprove(client, tsID, timesheet.ApproveDTO{Signature: "sig"})
			Expect(err).NotTo(HaveOccurred())

			ts, err := service.Reject(manager, tsID, timesheet.RejectDTO{Reason: "client signed the wrong sheet"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ts.Status).To(Equal(timesheet.StatusRejected))
		})

		It("should require a reason", func() {
			_, err := service.Reject(manager, tsID, timesheet.RejectDTO{})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should refuse non-management actors", func() {
			_, err := service.Reject(chief, tsID, timesheet.RejectDTO{Reason: "nope"})
			Expect(err).To(Equal(timesheet.ErrManagementRequired))
		})

		It("should conflict on a completed timesheet", func() {
			_, err := service.ClientApprove(client, tsID, timesheet.ApproveDTO{Signature: "sig"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ManagerApprove(manager, tsID, timesheet.ApproveDTO{Signature: "sig"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Reject(manager, tsID, timesheet.RejectDTO{Reason: "too late"})
			Expect(err).To(Equal(timesheet.ErrStateConflict))
		})
	})

	Describe("GetProjection", func() {
		It("should total adjusted hours per worker", func() {
			ts, err := service.Finalize(chief, 100)
			Expect(err).NotTo(HaveOccurred())

			out1 := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)
			out2 := time.Date(2026, 3, 9, 12, 30, 0, 0, time.UTC)
			adjuster.entries = []*timeclock.AdjustedEntry{
				{EntryID: 1, AssignmentID: 10, Ordinal: 1, ClockIn: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC), ClockOut: &out1},
				{EntryID: 2, AssignmentID: 11, Ordinal: 1, ClockIn: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC), ClockOut: &out2},
			}

			projection, err := service.GetProjection(ts.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(projection.Timesheet.ID).To(Equal(ts.ID))
			Expect(projection.Workers).To(HaveLen(2))

			byAssignment := make(map[int64]float64)
			for _, w := range projection.Workers {
				byAssignment[w.AssignmentID] = w.TotalHours
			}
			Expect(byAssignment[10]).To(Equal(8.0))
			Expect(byAssignment[11]).To(Equal(4.5))
			Expect(projection.TotalHours).To(Equal(12.5))
		})

		It("should report a missing timesheet", func() {
			_, err := service.GetProjection(404)
			Expect(err).To(Equal(internal.ErrTimesheetNotFound))
		})
	})

	It("should run the full approval flow end to end", func() {
		ts, err := service.Finalize(chief, 100)
		Expect(err).NotTo(HaveOccurred())

		_, err = service.ClientApprove(client, ts.ID, timesheet.ApproveDTO{Signature: "client"})
		Expect(err).NotTo(HaveOccurred())

		final, err := service.ManagerApprove(manager, ts.ID, timesheet.ApproveDTO{Signature: "manager"})
		Expect(err).NotTo(HaveOccurred())
		Expect(final.Status).To(Equal(timesheet.StatusCompleted))

		Expect(publisher.types()).To(Equal([]string{
			events.EventTypeTimesheetFinalized,
			events.EventTypeTimesheetClientApproved,
			events.EventTypeTimesheetManagerApproved,
		}))
	})
})
