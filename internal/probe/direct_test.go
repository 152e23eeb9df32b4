package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/time/rate"

	"github.com/angeloszaimis/linkpulse/internal/probe"
	"github.com/angeloszaimis/linkpulse/pkg/logger"
)

var _ = Describe("Direct", func() {
	var (
		server    *httptest.Server
		hits      atomic.Int32
		userAgent atomic.Value
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		hits.Store(0)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			userAgent.Store(r.Header.Get("User-Agent"))
			switch r.URL.Path {
			case "/ok":
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("hello"))
			case "/no-content":
				w.WriteHeader(http.StatusNoContent)
			case "/moved":
				http.Redirect(w, r, "/ok", http.StatusMovedPermanently)
			case "/slow":
				time.Sleep(300 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newDirect := func(opts probe.DirectOptions) *probe.Direct {
		opts.Logger = logger.Discard()
		if opts.Timeout == 0 {
			opts.Timeout = 2 * time.Second
		}
		return probe.NewDirect(opts)
	}

	It("should report a 200 as reachable with a latency", func() {
		res := newDirect(probe.DirectOptions{}).Probe(ctx, server.URL+"/ok", "ok")
		Expect(res.Success).To(BeTrue())
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.LatencySeconds).To(BeNumerically(">=", 0))
		Expect(res.Attempts).To(Equal(1))
		Expect(res.Error).To(BeEmpty())
		Expect(res.CheckedAt).NotTo(BeZero())
	})

	It("should send the configured headers", func() {
		d := newDirect(probe.DirectOptions{Headers: map[string]string{"user-agent": "Mozilla/5.0 test"}})
		d.Probe(ctx, server.URL+"/ok", "ok")
		Expect(userAgent.Load()).To(Equal("Mozilla/5.0 test"))
	})

	It("should follow redirects", func() {
		res := newDirect(probe.DirectOptions{}).Probe(ctx, server.URL+"/moved", "moved")
		Expect(res.Success).To(BeTrue())
		Expect(res.Status).To(Equal(http.StatusOK))
	})

	It("should treat statuses outside the default band as failures", func() {
		res := newDirect(probe.DirectOptions{}).Probe(ctx, server.URL+"/no-content", "nc")
		Expect(res.Success).To(BeFalse())
		Expect(res.Status).To(Equal(http.StatusNoContent))
		Expect(res.LatencySeconds).To(Equal(probe.NoLatency))
	})

	It("should honour a wider configured band", func() {
		d := newDirect(probe.DirectOptions{MinStatus: 200, MaxStatus: 299})
		res := d.Probe(ctx, server.URL+"/no-content", "nc")
		Expect(res.Success).To(BeTrue())
	})

	It("should report a 404 with its status", func() {
		res := newDirect(probe.DirectOptions{}).Probe(ctx, server.URL+"/missing", "missing")
		Expect(res.Success).To(BeFalse())
		Expect(res.Status).To(Equal(http.StatusNotFound))
		Expect(res.Error).To(ContainSubstring("404"))
	})

	It("should fold a timeout into a failed result", func() {
		d := newDirect(probe.DirectOptions{Timeout: 50 * time.Millisecond})
		res := d.Probe(ctx, server.URL+"/slow", "slow")
		Expect(res.Success).To(BeFalse())
		Expect(res.Status).To(Equal(0))
		Expect(res.LatencySeconds).To(Equal(probe.NoLatency))
		Expect(res.Error).NotTo(BeEmpty())
	})

	It("should fold a refused connection into a failed result", func() {
		url := server.URL + "/ok"
		server.Close()
		res := newDirect(probe.DirectOptions{}).Probe(ctx, url, "gone")
		Expect(res.Success).To(BeFalse())
		Expect(res.Status).To(Equal(0))
		Expect(res.Error).NotTo(BeEmpty())
	})

	It("should fold an unparsable link into a failed result", func() {
		res := newDirect(probe.DirectOptions{}).Probe(ctx, "://not a url", "bad")
		Expect(res.Success).To(BeFalse())
		Expect(res.Error).To(ContainSubstring("build request"))
	})

	It("should reject an empty link without touching the network", func() {
		res := newDirect(probe.DirectOptions{}).Probe(ctx, "", "empty")
		Expect(res.Success).To(BeFalse())
		Expect(res.Error).To(Equal("empty link"))
		Expect(res.Attempts).To(Equal(1))
		Expect(hits.Load()).To(BeZero())
	})

	It("should wait on the shared limiter", func() {
		d := newDirect(probe.DirectOptions{Limiter: rate.NewLimiter(rate.Inf, 1)})
		Expect(d.Probe(ctx, server.URL+"/ok", "ok").Success).To(BeTrue())
	})
})

var _ = Describe("RoundLatency", func() {
	DescribeTable("rounds to two decimals of a second",
		func(d time.Duration, want float64) {
			Expect(probe.RoundLatency(d)).To(BeNumerically("~", want, 1e-9))
		},
		Entry("120ms", 120*time.Millisecond, 0.12),
		Entry("1234ms", 1234*time.Millisecond, 1.23),
		Entry("4ms", 4*time.Millisecond, 0.0),
		Entry("2s", 2*time.Second, 2.0),
	)
})
