package httpserver

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/angeloszaimis/linkpulse/internal/metrics"
)

// RouterOptions configures the preview router.
type RouterOptions struct {
	// OutputDir is served as static files.
	OutputDir  string
	StatusFile string
	// Collector may be nil, in which case /metrics is not mounted.
	Collector *metrics.Collector
	Logger    *slog.Logger
}

// NewRouter serves the run's output directory together with a health
// endpoint, the latest report as JSON and Prometheus metrics.
func NewRouter(opts RouterOptions) http.Handler {
	if opts.StatusFile == "" {
		opts.StatusFile = "status.json"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger, opts.Collector))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/api/health", handleHealth)
	r.Get("/api/status", handleStatus(filepath.Join(opts.OutputDir, opts.StatusFile)))
	if opts.Collector != nil {
		r.Handle("/metrics", opts.Collector.Handler())
	}
	r.Handle("/*", http.FileServer(http.Dir(opts.OutputDir)))

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleStatus(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report yet"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !json.Valid(data) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "report is not valid JSON"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *slog.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debug("Request served",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))

			if collector != nil {
				collector.EventChannel() <- metrics.MetricEvent{
					Type:       metrics.EventHTTPRequest,
					Timestamp:  start,
					Method:     r.Method,
					StatusCode: status,
				}
			}
		})
	}
}
