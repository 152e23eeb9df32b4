package report_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/linkpulse/internal/report"
)

var _ = Describe("RenderSummary", func() {
	It("should celebrate a clean run", func() {
		s := report.NewStatus("run-1", "direct", "2024-01-01 08:00:00", []report.Item{
			{Name: "Alpha", Link: "https://a.example", Success: true, Status: 200, Attempts: 1},
		})
		out := report.RenderSummary(s)
		Expect(out).To(ContainSubstring("Checked 1 links at 2024-01-01 08:00:00"))
		Expect(out).To(ContainSubstring("All links reachable."))
	})

	It("should tabulate failing links", func() {
		s := report.NewStatus("run-2", "two-tier", "ts", []report.Item{
			{Name: "Alpha", Link: "https://a.example", Success: true, Status: 200, Attempts: 1},
			{Name: "Beta", Link: "https://b.example", Success: false, Status: 503, Attempts: 3, ErrorCount: 4},
			{Name: "Gamma", Link: "", Success: false, Attempts: 1, ErrorCount: 1},
		})
		out := report.RenderSummary(s)
		Expect(out).To(ContainSubstring("inaccessible: 2"))
		Expect(out).To(ContainSubstring("Beta"))
		Expect(out).To(ContainSubstring("503"))
		Expect(out).To(ContainSubstring("Gamma"))
		Expect(out).NotTo(ContainSubstring("https://a.example"))
		Expect(out).To(ContainSubstring("run-2"))
	})
})
