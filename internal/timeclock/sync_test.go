package timeclock_test

import (
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func closedEntry(id, assignmentID int64, ordinal int, in, out time.Time) *timeclock.ClockEntry {
	return &timeclock.ClockEntry{
		ID:           id,
		AssignmentID: assignmentID,
		Ordinal:      ordinal,
		ClockIn:      in,
		ClockOut:     &out,
	}
}

func openEntry(id, assignmentID int64, ordinal int, in time.Time) *timeclock.ClockEntry {
	return &timeclock.ClockEntry{
		ID:           id,
		AssignmentID: assignmentID,
		Ordinal:      ordinal,
		ClockIn:      in,
	}
}

var _ = Describe("Synchronize", func() {
	It("should snap a minority clock-in to the wave majority", func() {
		// Two round to 08:00, one to 08:15; the outlier is within the
		// grace window and joins the majority.
		entries := []*timeclock.ClockEntry{
			closedEntry(1, 10, 1, at(8, 0, 0), at(16, 0, 0)),
			closedEntry(2, 11, 1, at(8, 14, 0), at(16, 0, 0)),
			closedEntry(3, 12, 1, at(8, 16, 0), at(16, 0, 0)),
		}

		adjusted, summary := timeclock.Synchronize(entries)

		Expect(adjusted).To(HaveLen(3))
		for _, ae := range adjusted {
			Expect(ae.ClockIn).To(Equal(at(8, 0, 0)))
		}
		Expect(summary.Adjustments).To(HaveLen(1))
		Expect(summary.Adjustments[0].EntryID).To(Equal(int64(3)))
		Expect(summary.Adjustments[0].Direction).To(Equal(timeclock.DirectionIn))
		Expect(summary.Adjustments[0].From).To(Equal(at(8, 15, 0)))
		Expect(summary.Adjustments[0].To).To(Equal(at(8, 0, 0)))
	})

	It("should snap a minority clock-out to the wave majority", func() {
		entries := []*timeclock.ClockEntry{
			closedEntry(1, 10, 1, at(8, 0, 0), at(16, 1, 0)),
			closedEntry(2, 11, 1, at(8, 0, 0), at(16, 5, 0)),
			closedEntry(3, 12, 1, at(8, 0, 0), at(16, 0, 0)),
		}

		adjusted, summary := timeclock.Synchronize(entries)

		for _, ae := range adjusted {
			Expect(*ae.ClockOut).To(Equal(at(16, 15, 0)))
		}
		Expect(summary.Adjustments).To(HaveLen(1))
		Expect(summary.Adjustments[0].EntryID).To(Equal(int64(3)))
		Expect(summary.Adjustments[0].Direction).To(Equal(timeclock.DirectionOut))
	})

	It("should leave an ambiguous wave unchanged", func() {
		// One rounds to 08:00, one to 08:15: no unique majority.
		entries := []*timeclock.ClockEntry{
			closedEntry(1, 10, 1, at(8, 0, 0), at(16, 0, 0)),
			closedEntry(2, 11, 1, at(8, 16, 0), at(16, 0, 0)),
		}

		adjusted, summary := timeclock.Synchronize(entries)

		Expect(adjusted[0].ClockIn).To(Equal(at(8, 0, 0)))
		Expect(adjusted[1].ClockIn).To(Equal(at(8, 15, 0)))
		Expect(summary.Adjustments).To(BeEmpty())
	})

	It("should not snap an outlier beyond the grace window", func() {
		entries := []*timeclock.ClockEntry{
			closedEntry(1, 10, 1, at(8, 0, 0), at(16, 0, 0)),
			closedEntry(2, 11, 1, at(8, 0, 0), at(16, 0, 0)),
			closedEntry(3, 12, 1, at(9, 0, 0), at(16, 0, 0)),
		}

		adjusted, summary := timeclock.Synchronize(entries)

		Expect(adjusted[2].ClockIn).To(Equal(at(9, 0, 0)))
		Expect(summary.Adjustments).To(BeEmpty())
	})

	It("should exclude open entries from wave computation", func() {
		// The open entry rounds to 08:15 but neither snaps nor votes.
		entries := []*timeclock.ClockEntry{
			closedEntry(1, 10, 1, at(8, 0, 0), at(16, 0, 0)),
			closedEntry(2, 11, 1, at(8, 0, 0), at(16, 0, 0)),
			openEntry(3, 12, 1, at(8, 16, 0)),
		}

		adjusted, summary := timeclock.Synchronize(entries)

		Expect(adjusted[2].ClockIn).To(Equal(at(8, 15, 0)))
		Expect(adjusted[2].ClockOut).To(BeNil())
		Expect(summary.Adjustments).To(BeEmpty())
	})

	It("should keep waves separate by ordinal", func() {
		// Second span of the day does not vote in the first span's wave.
		entries := []*timeclock.ClockEntry{
			closedEntry(1, 10, 1, at(8, 0, 0), at(12, 0, 0)),
			closedEntry(2, 11, 1, at(8, 0, 0), at(12, 0, 0)),
			closedEntry(3, 10, 2, at(13, 16, 0), at(17, 0, 0)),
			closedEntry(4, 11, 2, at(13, 0, 0), at(17, 0, 0)),
		}

		adjusted, summary := timeclock.Synchronize(entries)

		Expect(adjusted[0].ClockIn).To(Equal(at(8, 0, 0)))
		Expect(adjusted[2].ClockIn).To(Equal(at(13, 15, 0)))
		Expect(summary.Adjustments).To(BeEmpty())
	})

	It("should not run on a single-member wave", func() {
		entries := []*timeclock.ClockEntry{
			closedEntry(1, 10, 1, at(8, 7, 0), at(16, 2, 0)),
		}

		adjusted, summary := timeclock.Synchronize(entries)

		Expect(adjusted[0].ClockIn).To(Equal(at(8, 0, 0)))
		Expect(*adjusted[0].ClockOut).To(Equal(at(16, 15, 0)))
		Expect(summary.Adjustments).To(BeEmpty())
	})

	It("should report adjustments sorted by ordinal, direction and entry", func() {
		entries := []*timeclock.ClockEntry{
			closedEntry(1, 10, 1, at(8, 0, 0), at(12, 0, 0)),
			closedEntry(2, 11, 1, at(8, 0, 0), at(12, 15, 0)),
			closedEntry(3, 12, 1, at(8, 16, 0), at(12, 15, 0)),
		}

		_, summary := timeclock.Synchronize(entries)

		Expect(summary.Adjustments).To(HaveLen(2))
		Expect(summary.Adjustments[0].Direction).To(Equal(timeclock.DirectionIn))
		Expect(summary.Adjustments[0].EntryID).To(Equal(int64(3)))
		Expect(summary.Adjustments[1].Direction).To(Equal(timeclock.DirectionOut))
		Expect(summary.Adjustments[1].EntryID).To(Equal(int64(1)))
	})
})
