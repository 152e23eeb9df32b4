package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angeloszaimis/linkpulse/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	It("should count probes by tier and outcome", func() {
		m.RecordProbe("direct", true, 0.2)
		m.RecordProbe("direct", false, -1)
		m.RecordProbe("delegated", true, 0.5)

		Expect(testutil.GatherAndCount(m.Registry(), "linkpulse_probes_total")).To(Equal(3))
		Expect(testutil.GatherAndCount(m.Registry(), "linkpulse_probe_latency_seconds")).To(Equal(2))
	})

	It("should count a delegated failure that fell back alongside its direct result", func() {
		m.RecordProbe("delegated", false, -1)
		m.RecordFallback()
		m.RecordProbe("direct", true, 0.3)

		families, err := m.Registry().Gather()
		Expect(err).NotTo(HaveOccurred())
		var help string
		for _, f := range families {
			if f.GetName() == "linkpulse_probes_total" {
				help = f.GetHelp()
			}
		}
		Expect(help).To(ContainSubstring("fell back"))
		Expect(help).NotTo(HavePrefix("Final"))
		Expect(testutil.GatherAndCount(m.Registry(), "linkpulse_probes_total")).To(Equal(2))
		Expect(testutil.GatherAndCount(m.Registry(), "linkpulse_fallbacks_total")).To(Equal(1))
	})

	It("should record the last run", func() {
		at := time.Unix(1700000000, 0)
		m.RecordRun(8, 2, at)

		Expect(testutil.GatherAndCount(m.Registry(), "linkpulse_links")).To(Equal(2))
		Expect(testutil.GatherAndCount(m.Registry(), "linkpulse_last_run_timestamp_seconds")).To(Equal(1))
	})

	It("should expose a gatherable registry", func() {
		m.RecordFallback()
		families, err := m.Registry().Gather()
		Expect(err).NotTo(HaveOccurred())
		Expect(families).NotTo(BeEmpty())
	})
})
