package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angeloszaimis/linkpulse/pkg/atomicfile"
)

// TimestampLayout is the wall-clock format used in every output file.
const TimestampLayout = "2006-01-02 15:04:05"

// Item is one link in the public report. A nil Favicon encodes as null.
type Item struct {
	Name       string  `json:"name"`
	Link       string  `json:"link"`
	Favicon    *string `json:"favicon"`
	Success    bool    `json:"success"`
	Latency    float64 `json:"latency"`
	Status     int     `json:"status"`
	Attempts   int     `json:"attempts"`
	ErrorCount int     `json:"error_count"`
}

// Status is the document written to status.json.
type Status struct {
	RunID             string `json:"run_id"`
	Mode              string `json:"mode"`
	Timestamp         string `json:"timestamp"`
	AccessibleCount   int    `json:"accessible_count"`
	InaccessibleCount int    `json:"inaccessible_count"`
	TotalCount        int    `json:"total_count"`
	Items             []Item `json:"link_status"`
}

// Diagnostic is one tier's view of a single link.
type Diagnostic struct {
	Success   bool    `json:"success"`
	Status    int     `json:"status"`
	APIStatus int     `json:"api_status,omitempty"`
	Latency   float64 `json:"latency"`
	Attempts  int     `json:"attempts"`
	Error     string  `json:"error,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Diagnostics maps a link to what one tier saw for it.
type Diagnostics map[string]Diagnostic

// NewStatus counts items in one pass and stamps the report.
func NewStatus(runID, mode, timestamp string, items []Item) Status {
	if items == nil {
		items = []Item{}
	}

	s := Status{
		RunID:      runID,
		Mode:       mode,
		Timestamp:  timestamp,
		TotalCount: len(items),
		Items:      items,
	}
	for _, it := range items {
		if it.Success {
			s.AccessibleCount++
		}
	}
	s.InaccessibleCount = s.TotalCount - s.AccessibleCount
	return s
}

// Failing returns the unsuccessful items in report order.
func (s Status) Failing() []Item {
	var out []Item
	for _, it := range s.Items {
		if !it.Success {
			out = append(out, it)
		}
	}
	return out
}

func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}

// Encode renders v as two-space indented JSON with HTML characters left
// unescaped, so links containing & stay readable.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes v and replaces path atomically.
func WriteJSON(path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, data, 0o644)
}
