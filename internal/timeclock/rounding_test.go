package timeclock_test

import (
	"testing"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTimeclock(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Timeclock Suite")
}

func at(hour, min, sec int) time.Time {
	return time.Date(2026, 3, 9, hour, min, sec, 0, time.UTC)
}

var _ = Describe("Rounding", func() {
	Describe("RoundClockIn", func() {
		It("should round down to the previous quarter hour", func() {
			Expect(timeclock.RoundClockIn(at(8, 7, 0))).To(Equal(at(8, 0, 0)))
			Expect(timeclock.RoundClockIn(at(8, 14, 59))).To(Equal(at(8, 0, 0)))
			Expect(timeclock.RoundClockIn(at(8, 16, 0))).To(Equal(at(8, 15, 0)))
			Expect(timeclock.RoundClockIn(at(8, 59, 30))).To(Equal(at(8, 45, 0)))
		})

		It("should leave a boundary timestamp unchanged", func() {
			Expect(timeclock.RoundClockIn(at(8, 0, 0))).To(Equal(at(8, 0, 0)))
			Expect(timeclock.RoundClockIn(at(8, 45, 0))).To(Equal(at(8, 45, 0)))
		})

		It("should strip seconds and sub-second precision", func() {
			noisy := at(9, 30, 12).Add(345 * time.Millisecond)
			Expect(timeclock.RoundClockIn(noisy)).To(Equal(at(9, 30, 0)))
		})

		It("should be idempotent", func() {
			for _, t := range []time.Time{at(8, 7, 3), at(23, 59, 59), at(0, 0, 0)} {
				once := timeclock.RoundClockIn(t)
				Expect(timeclock.RoundClockIn(once)).To(Equal(once))
			}
		})
	})

	Describe("RoundClockOut", func() {
		It("should round up to the next quarter hour", func() {
			Expect(timeclock.RoundClockOut(at(17, 1, 0))).To(Equal(at(17, 15, 0)))
			Expect(timeclock.RoundClockOut(at(17, 16, 0))).To(Equal(at(17, 30, 0)))
			Expect(timeclock.RoundClockOut(at(17, 59, 59))).To(Equal(at(18, 0, 0)))
		})

		It("should leave a boundary timestamp unchanged", func() {
			Expect(timeclock.RoundClockOut(at(17, 0, 0))).To(Equal(at(17, 0, 0)))
			Expect(timeclock.RoundClockOut(at(17, 45, 0))).To(Equal(at(17, 45, 0)))
		})

		It("should carry into the next day at midnight", func() {
			out := timeclock.RoundClockOut(at(23, 58, 0))
			Expect(out).To(Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
		})

		It("should be idempotent", func() {
			for _, t := range []time.Time{at(17, 1, 0), at(23, 58, 0), at(12, 0, 0)} {
				once := timeclock.RoundClockOut(t)
				Expect(timeclock.RoundClockOut(once)).To(Equal(once))
			}
		})

		It("should never shorten the payable span below the raw span boundaries", func() {
			in := at(8, 7, 0)
			out := at(16, 52, 0)
			roundedIn := timeclock.RoundClockIn(in)
			roundedOut := timeclock.RoundClockOut(out)
			Expect(roundedIn.After(in)).To(BeFalse())
			Expect(roundedOut.Before(out)).To(BeFalse())
		})
	})
})
