package timeclock_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	clockentryDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/clockentry"
	shiftDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/shift"
	"github.com/frahmantamala/crew-timekeeping/internal/permission"
	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockTimeclockRepository implements timeclock.Repository for testing
type MockTimeclockRepository struct {
	assignments map[int64]*shiftDatamodel.Assignment
	shifts      map[int64]*shiftDatamodel.Shift
	entries     []*clockentryDatamodel.ClockEntry
	nextID      int64
	shouldFail  bool
	failError   error
}

func NewMockTimeclockRepository() *MockTimeclockRepository {
	return &MockTimeclockRepository{
		assignments: make(map[int64]*shiftDatamodel.Assignment),
		shifts:      make(map[int64]*shiftDatamodel.Shift),
		nextID:      1,
	}
}

func (m *MockTimeclockRepository) GetAssignment(id int64) (*shiftDatamodel.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return a, nil
}

func (m *MockTimeclockRepository) GetShift(id int64) (*shiftDatamodel.Shift, error) {
	s, ok := m.shifts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (m *MockTimeclockRepository) CreateEntryIfNoneOpen(assignmentID int64, clockIn time.Time) (*clockentryDatamodel.ClockEntry, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	maxOrdinal := 0
	for _, e := range m.entries {
		if e.AssignmentID != assignmentID {
			continue
		}
		if e.ClockOut == nil {
			return nil, timeclock.ErrOpenEntryExists
		}
		if e.Ordinal > maxOrdinal {
			maxOrdinal = e.Ordinal
		}
	}
	entry := &clockentryDatamodel.ClockEntry{
		ID:           m.nextID,
		AssignmentID: assignmentID,
		Ordinal:      maxOrdinal + 1,
		ClockIn:      clockIn,
	}
	m.nextID++
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *MockTimeclockRepository) CloseOpenEntry(assignmentID int64, clockOut time.Time) (*clockentryDatamodel.ClockEntry, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, e := range m.entries {
		if e.AssignmentID == assignmentID && e.ClockOut == nil {
			out := clockOut
			e.ClockOut = &out
			return e, nil
		}
	}
	return nil, timeclock.ErrNoOpenEntry
}

func (m *MockTimeclockRepository) ListEntriesByShift(shiftID int64) ([]*clockentryDatamodel.ClockEntry, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*clockentryDatamodel.ClockEntry
	for _, e := range m.entries {
		if a, ok := m.assignments[e.AssignmentID]; ok && a.ShiftID == shiftID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MockTimeclockRepository) CountOpenEntriesByShift(shiftID int64) (int64, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	var count int64
	for _, e := range m.entries {
		if a, ok := m.assignments[e.AssignmentID]; ok && a.ShiftID == shiftID && e.ClockOut == nil {
			count++
		}
	}
	return count, nil
}

func (m *MockTimeclockRepository) UpdateAssignmentStatus(assignmentID int64, status string) error {
	if a, ok := m.assignments[assignmentID]; ok {
		a.Status = status
	}
	return nil
}

func (m *MockTimeclockRepository) EndShiftAssignments(shiftID int64) (int64, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	var ended int64
	for _, a := range m.assignments {
		if a.ShiftID == shiftID && a.Status != shiftDatamodel.AssignmentShiftEnded {
			a.Status = shiftDatamodel.AssignmentShiftEnded
			ended++
		}
	}
	return ended, nil
}

// MockResolver implements timeclock.PermissionResolver for testing
type MockResolver struct {
	allowed map[int64]bool
}

func (m *MockResolver) Resolve(actor *auth.User, shiftID int64) (permission.Resolution, error) {
	if actor.Role.IsManagement() {
		return permission.Resolution{Allowed: true, Source: permission.SourceAdmin}, nil
	}
	if m.allowed[actor.ID] {
		return permission.Resolution{Allowed: true, Source: permission.SourceShift}, nil
	}
	return permission.Resolution{Allowed: false, Source: permission.SourceNone}, nil
}

var _ = Describe("Timeclock Service", func() {
	var (
		repo     *MockTimeclockRepository
		resolver *MockResolver
		service  *timeclock.Service
		worker   *auth.User
		chief    *auth.User
		other    *auth.User
	)

	BeforeEach(func() {
		repo = NewMockTimeclockRepository()
		resolver = &MockResolver{allowed: make(map[int64]bool)}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = timeclock.NewService(repo, resolver, logger)

		worker = &auth.User{ID: 1, Role: auth.RoleEmployee}
		chief = &auth.User{ID: 2, Role: auth.RoleCrewChief}
		other = &auth.User{ID: 3, Role: auth.RoleEmployee}
		resolver.allowed[chief.ID] = true

		repo.shifts[100] = &shiftDatamodel.Shift{ID: 100, JobID: 7, ClientID: 9, Status: shiftDatamodel.StatusInProgress}
		repo.assignments[10] = &shiftDatamodel.Assignment{ID: 10, ShiftID: 100, WorkerID: worker.ID, Status: shiftDatamodel.AssignmentNotStarted}
	})

	Describe("ClockIn", func() {
		It("should let a worker clock themselves in", func() {
			entry, err := service.ClockIn(worker, 10, at(8, 3, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Ordinal).To(Equal(1))
			Expect(entry.ClockIn).To(Equal(at(8, 3, 0)))
			Expect(repo.assignments[10].Status).To(Equal(shiftDatamodel.AssignmentClockedIn))
		})

		It("should let an authorized crew chief clock someone else in", func() {
			_, err := service.ClockIn(chief, 10, at(8, 0, 0))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should deny an unauthorized actor", func() {
			_, err := service.ClockIn(other, 10, at(8, 0, 0))
			Expect(err).To(Equal(internal.ErrUnauthorizedActor))
		})

		It("should reject a second clock-in while an entry is open", func() {
			_, err := service.ClockIn(worker, 10, at(8, 0, 0))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ClockIn(worker, 10, at(8, 5, 0))
			Expect(err).To(Equal(timeclock.ErrOpenEntryExists))
		})

		It("should assign increasing ordinals across spans", func() {
			_, err := service.ClockIn(worker, 10, at(8, 0, 0))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ClockOut(worker, 10, at(12, 0, 0))
			Expect(err).NotTo(HaveOccurred())

			entry, err := service.ClockIn(worker, 10, at(13, 0, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Ordinal).To(Equal(2))
		})

		It("should refuse clock actions on a completed shift", func() {
			repo.shifts[100].Status = shiftDatamodel.StatusCompleted
			_, err := service.ClockIn(worker, 10, at(8, 0, 0))
			Expect(err).To(Equal(timeclock.ErrShiftCompleted))
		})

		It("should return not found for an unknown assignment", func() {
			_, err := service.ClockIn(worker, 999, at(8, 0, 0))
			Expect(err).To(Equal(internal.ErrAssignmentNotFound))
		})
	})

	Describe("ClockOut", func() {
		It("should close the open entry and mark the assignment clocked out", func() {
			_, err := service.ClockIn(worker, 10, at(8, 0, 0))
			Expect(err).NotTo(HaveOccurred())

			entry, err := service.ClockOut(worker, 10, at(16, 2, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.ClockOut).NotTo(BeNil())
			Expect(repo.assignments[10].Status).To(Equal(shiftDatamodel.AssignmentClockedOut))
		})

		It("should reject a clock-out without an open entry", func() {
			_, err := service.ClockOut(worker, 10, at(16, 0, 0))
			Expect(err).To(Equal(timeclock.ErrNoOpenEntry))
		})
	})

	Describe("EndShift", func() {
		It("should refuse while clock entries are still open", func() {
			_, err := service.ClockIn(worker, 10, at(8, 0, 0))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.EndShift(chief, 100)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeOpenClockEntry))
		})

		It("should end every assignment once all entries are closed", func() {
			repo.assignments[11] = &shiftDatamodel.Assignment{ID: 11, ShiftID: 100, WorkerID: other.ID, Status: shiftDatamodel.AssignmentNotStarted}

			_, err := service.ClockIn(worker, 10, at(8, 0, 0))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ClockOut(worker, 10, at(16, 0, 0))
			Expect(err).NotTo(HaveOccurred())

			ended, err := service.EndShift(chief, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(ended).To(Equal(int64(2)))
			Expect(repo.assignments[10].Status).To(Equal(shiftDatamodel.AssignmentShiftEnded))
			Expect(repo.assignments[11].Status).To(Equal(shiftDatamodel.AssignmentShiftEnded))
		})

		It("should deny a worker without crew chief authority", func() {
			_, err := service.EndShift(worker, 100)
			Expect(err).To(Equal(internal.ErrUnauthorizedActor))
		})

		It("should refuse on a completed shift", func() {
			repo.shifts[100].Status = shiftDatamodel.StatusCompleted
			_, err := service.EndShift(chief, 100)
			Expect(err).To(Equal(timeclock.ErrShiftCompleted))
		})
	})

	Describe("PreviewAdjustments", func() {
		It("should require manage authority", func() {
			_, _, err := service.PreviewAdjustments(worker, 100)
			Expect(err).To(Equal(internal.ErrUnauthorizedActor))
		})

		It("should return rounded entries for the shift", func() {
			_, err := service.ClockIn(worker, 10, at(8, 7, 0))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ClockOut(worker, 10, at(16, 2, 0))
			Expect(err).NotTo(HaveOccurred())

			entries, summary, err := service.PreviewAdjustments(chief, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ClockIn).To(Equal(at(8, 0, 0)))
			Expect(*entries[0].ClockOut).To(Equal(at(16, 15, 0)))
			Expect(summary.Adjustments).To(BeEmpty())
		})

		It("should wrap storage failures", func() {
			repo.shouldFail = true
			repo.failError = errors.New("connection reset")

			_, _, err := service.PreviewAdjustments(chief, 100)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeStorage))
		})
	})
})
