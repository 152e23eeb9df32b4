package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/linkpulse/internal/circuitbreaker"
)

var _ = Describe("CircuitBreaker", func() {
	var (
		cb  *circuitbreaker.CircuitBreaker
		now time.Time
	)

	clock := func() time.Time { return now }

	trip := func() {
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordFailure()
	}

	BeforeEach(func() {
		now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		cb = circuitbreaker.NewWithClock(3, time.Minute, clock)
	})

	Describe("New", func() {
		It("should create a circuit breaker in closed state", func() {
			b := circuitbreaker.New(5, 30*time.Second)
			Expect(b.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(b.Allow()).To(BeTrue())
		})
	})

	Context("when in CLOSED state", func() {
		It("should remain closed after failures below threshold", func() {
			cb.RecordFailure()
			Expect(cb.RecordFailure()).To(BeFalse())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should report opening when the threshold is reached", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.RecordFailure()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Context("when in OPEN state", func() {
		BeforeEach(trip)

		It("should block calls", func() {
			Expect(cb.Allow()).To(BeFalse())
		})

		It("should not report opening twice", func() {
			Expect(cb.RecordFailure()).To(BeFalse())
		})

		It("should stay OPEN before the reset timeout", func() {
			now = now.Add(30 * time.Second)
			Expect(cb.Allow()).To(BeFalse())
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should move to HALF-OPEN after the reset timeout", func() {
			now = now.Add(time.Minute)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})
	})

	Context("when in HALF-OPEN state", func() {
		BeforeEach(func() {
			trip()
			now = now.Add(2 * time.Minute)
			cb.Allow()
		})

		It("should close on success", func() {
			cb.RecordSuccess()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should reopen on a single failure", func() {
			Expect(cb.RecordFailure()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Describe("RecordSuccess", func() {
		It("should reset the failure count", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordSuccess()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("disabled breaker", func() {
		It("should never open with a threshold below one", func() {
			off := circuitbreaker.NewWithClock(0, time.Minute, clock)
			for i := 0; i < 10; i++ {
				Expect(off.RecordFailure()).To(BeFalse())
			}
			Expect(off.Allow()).To(BeTrue())
		})
	})

	Describe("State.String", func() {
		It("should return correct string representation", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF-OPEN"))
			Expect(circuitbreaker.State(42).String()).To(Equal("UNKNOWN"))
		})
	})
})
