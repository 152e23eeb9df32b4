// Package fixture serves a self-contained friend-link world for local runs
// and tests: a manifest, a handful of sites with known behavior, and an
// imitation of the delegated status API.
package fixture

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// Site is one page the manifest points at.
type Site struct {
	Name   string
	Path   string
	Status int
	Delay  time.Duration
}

// DefaultSites cover every branch of a two-tier check.
var DefaultSites = []Site{
	{Name: "Healthy", Path: "/site/ok", Status: http.StatusOK},
	{Name: "Redirected", Path: "/site/moved", Status: http.StatusMovedPermanently},
	{Name: "Down", Path: "/site/down", Status: http.StatusServiceUnavailable},
	{Name: "Slow", Path: "/site/slow", Status: http.StatusOK, Delay: 300 * time.Millisecond},
}

// Fixture counts the requests it has seen per path.
type Fixture struct {
	sites    []Site
	logger   *slog.Logger
	apiCalls atomic.Int64
	hits     map[string]*atomic.Int64
}

func New(sites []Site, logger *slog.Logger) *Fixture {
	if sites == nil {
		sites = DefaultSites
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	hits := make(map[string]*atomic.Int64, len(sites))
	for _, s := range sites {
		hits[s.Path] = &atomic.Int64{}
	}
	return &Fixture{sites: sites, logger: logger, hits: hits}
}

// Hits reports how often a site path was requested directly.
func (f *Fixture) Hits(path string) int64 {
	if c, ok := f.hits[path]; ok {
		return c.Load()
	}
	return 0
}

// APICalls reports how often the status API was asked.
func (f *Fixture) APICalls() int64 {
	return f.apiCalls.Load()
}

// Handler routes /api/links.json, /api/status and every site path.
func (f *Fixture) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/links.json", f.handleManifest)
	mux.HandleFunc("GET /api/status", f.handleStatus)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	for _, s := range f.sites {
		mux.HandleFunc(s.Path, f.handleSite(s))
	}
	return mux
}

func (f *Fixture) handleManifest(w http.ResponseWriter, r *http.Request) {
	base := "http://" + r.Host
	friends := make([][]*string, 0, len(f.sites)+1)
	for _, s := range f.sites {
		name, link, icon := s.Name, base+s.Path, base+s.Path+"/favicon.ico"
		friends = append(friends, []*string{&name, &link, &icon})
	}
	missing := "Missing link"
	friends = append(friends, []*string{&missing, nil, nil})

	writeJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

func (f *Fixture) handleSite(s Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.hits[s.Path].Add(1)
		f.logger.Debug("site request", slog.String("path", r.URL.Path), slog.String("ua", r.UserAgent()))

		if s.Delay > 0 {
			time.Sleep(s.Delay)
		}
		if s.Status >= 300 && s.Status < 400 {
			w.Header().Set("Location", "/site/ok")
		}
		w.WriteHeader(s.Status)
		fmt.Fprintf(w, "<html><body>%s</body></html>", s.Name)
	}
}

// handleStatus answers like the delegated API: code 200 with the site's
// status for known paths, code 500 for unknown links.
func (f *Fixture) handleStatus(w http.ResponseWriter, r *http.Request) {
	f.apiCalls.Add(1)

	target, err := url.Parse(r.URL.Query().Get("url"))
	if err != nil || target.Host == "" {
		writeJSON(w, http.StatusOK, map[string]any{"code": 400, "msg": "invalid url"})
		return
	}

	for _, s := range f.sites {
		if strings.TrimSuffix(target.Path, "/") != s.Path {
			continue
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"code":    200,
			"data":    s.Status,
			"latency": fmt.Sprintf("%.2f", s.Delay.Seconds()+0.05),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"code": 500, "msg": "unreachable"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
