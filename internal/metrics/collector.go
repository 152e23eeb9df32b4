package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type EventType string

const (
	EventProbeCompleted EventType = "probe_completed"
	EventFallback       EventType = "fallback"
	EventRunCompleted   EventType = "run_completed"
	EventHTTPRequest    EventType = "http_request"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Tier      string
	Success   bool
	Latency   float64

	Accessible   int
	Inaccessible int

	Method     string
	StatusCode int
}

// Collector applies events to Metrics on its own goroutine, so emitters
// never contend on the registry.
type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
	done    chan struct{}
	once    sync.Once
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

func (c *Collector) Metrics() *Metrics {
	return c.metrics
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

// Flush blocks until every event sent so far has been applied and the
// collector has stopped. Nothing may be sent after Flush.
func (c *Collector) Flush() {
	c.once.Do(func() { close(c.eventCh) })
	<-c.done
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.metrics.Registry(), promhttp.HandlerOpts{})
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Debug("Metrics collector started")
	defer c.logger.Debug("Metrics collector stopped")
	defer close(c.done)

	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventProbeCompleted:
		c.metrics.RecordProbe(event.Tier, event.Success, event.Latency)

	case EventFallback:
		c.metrics.RecordFallback()

	case EventRunCompleted:
		c.metrics.RecordRun(event.Accessible, event.Inaccessible, event.Timestamp)

	case EventHTTPRequest:
		c.metrics.RecordHTTPRequest(event.Method, event.StatusCode)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.processEvent(event)
		default:
			return
		}
	}
}
