package errcount_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/linkpulse/internal/errcount"
)

var _ = Describe("Counter", func() {
	It("should reset a domain to zero on success", func() {
		c := errcount.NewCounter(map[string]int{"a.example": 4})
		Expect(c.Record("a.example", true)).To(Equal(0))
		Expect(c.Get("a.example")).To(Equal(0))
	})

	It("should increment a domain on failure", func() {
		c := errcount.NewCounter(map[string]int{"a.example": 4})
		Expect(c.Record("a.example", false)).To(Equal(5))
	})

	It("should start unseen domains at zero", func() {
		c := errcount.NewCounter(nil)
		Expect(c.Get("new.example")).To(Equal(0))
		Expect(c.Record("new.example", false)).To(Equal(1))
	})

	It("should apply repeated updates for the same domain in order", func() {
		c := errcount.NewCounter(nil)
		Expect(c.Record("a.example", false)).To(Equal(1))
		Expect(c.Record("a.example", false)).To(Equal(2))
		Expect(c.Record("a.example", true)).To(Equal(0))
	})

	It("should clamp negative seed values", func() {
		c := errcount.NewCounter(map[string]int{"a.example": -3})
		Expect(c.Get("a.example")).To(Equal(0))
	})

	It("should never drop domains", func() {
		c := errcount.NewCounter(map[string]int{"old.example": 2})
		c.Record("a.example", true)
		Expect(c.Snapshot()).To(Equal(map[string]int{"old.example": 2, "a.example": 0}))
		Expect(c.Len()).To(Equal(2))
	})

	It("should hand out copies from Snapshot", func() {
		c := errcount.NewCounter(nil)
		c.Record("a.example", false)
		snap := c.Snapshot()
		snap["a.example"] = 99
		Expect(c.Get("a.example")).To(Equal(1))
	})

	It("should be safe for concurrent use", func() {
		c := errcount.NewCounter(nil)
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Record("a.example", false)
			}()
		}
		wg.Wait()
		Expect(c.Get("a.example")).To(Equal(50))
	})
})

var _ = Describe("DomainOf", func() {
	DescribeTable("extracting the host",
		func(link, want string) {
			Expect(errcount.DomainOf(link)).To(Equal(want))
		},
		Entry("plain https", "https://a.example/blog", "a.example"),
		Entry("drops the port", "http://a.example:8080/", "a.example"),
		Entry("lowercases", "https://Blog.Example.COM", "blog.example.com"),
		Entry("punycodes unicode hosts", "https://bücher.example/", "xn--bcher-kva.example"),
		Entry("keeps a bare word", "not a link", "not a link"),
		Entry("keeps a scheme-less host", "a.example", "a.example"),
	)
})
