package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/angeloszaimis/linkpulse/internal/circuitbreaker"
)

// ErrBreakerOpen is reported while the delegated API is being skipped.
var ErrBreakerOpen = errors.New("delegated api circuit open")

type DelegatedOptions struct {
	Client *http.Client
	// Endpoint is called as Endpoint?url=<link>.
	Endpoint string
	Headers  map[string]string
	Timeout  time.Duration
	Breaker  *circuitbreaker.CircuitBreaker
	Limiter  *rate.Limiter
	Logger   *slog.Logger
	Now      func() time.Time
}

// Delegated asks a third-party status API whether a link is up. Its verdict
// is cheap but not authoritative, so failures are meant to be re-checked by
// Direct.
type Delegated struct {
	client   *http.Client
	endpoint string
	headers  map[string]string
	timeout  time.Duration
	breaker  *circuitbreaker.CircuitBreaker
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

func NewDelegated(opts DelegatedOptions) *Delegated {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Delegated{
		client:   opts.Client,
		endpoint: opts.Endpoint,
		headers:  opts.Headers,
		timeout:  opts.Timeout,
		breaker:  opts.Breaker,
		limiter:  opts.Limiter,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// statusResponse is the API payload. Fields may arrive as numbers or strings.
type statusResponse struct {
	Code    looseNumber `json:"code"`
	Data    looseNumber `json:"data"`
	Latency looseNumber `json:"latency"`
}

func (d *Delegated) Probe(ctx context.Context, link, name string) Result {
	if link == "" {
		return Rejected(d.now())
	}

	if d.breaker != nil && !d.breaker.Allow() {
		d.logger.Debug("Delegated API skipped", slog.String("name", name))
		res := Failed(0, ErrBreakerOpen.Error(), d.now())
		res.Final = true
		return res
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return Failed(0, fmt.Sprintf("rate limiter: %v", err), d.now())
		}
	}

	apiURL, err := d.requestURL(link)
	if err != nil {
		return Failed(0, fmt.Sprintf("build api url: %v", err), d.now())
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Failed(0, fmt.Sprintf("build api request: %v", err), d.now())
	}
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.apiFailed(name, err)
		return Failed(0, fmt.Sprintf("delegated api: %v", err), d.now())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.apiFailed(name, fmt.Errorf("HTTP %d", resp.StatusCode))
		res := Failed(0, fmt.Sprintf("delegated api: HTTP %d", resp.StatusCode), d.now())
		res.APIStatus = resp.StatusCode
		return res
	}

	var payload statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		d.apiFailed(name, err)
		res := Failed(0, fmt.Sprintf("delegated api: decode: %v", err), d.now())
		res.APIStatus = resp.StatusCode
		return res
	}

	if d.breaker != nil {
		d.breaker.RecordSuccess()
	}

	code, status := int(payload.Code), int(payload.Data)
	if code != http.StatusOK || status < 200 || status >= 400 {
		d.logger.Warn("Delegated probe failed, direct check required",
			slog.String("name", name),
			slog.Int("api_code", code),
			slog.Int("status", status))
		res := Failed(status, fmt.Sprintf("delegated api reported code %d, status %d", code, status), d.now())
		res.APIStatus = code
		return res
	}

	latency := float64(payload.Latency)
	if latency < 0 {
		latency = 0
	}

	d.logger.Info("Delegated probe succeeded",
		slog.String("name", name),
		slog.Int("status", status),
		slog.Float64("latency", latency))

	return Result{
		Success:        true,
		Status:         status,
		LatencySeconds: latency,
		Attempts:       1,
		APIStatus:      code,
		CheckedAt:      d.now(),
	}
}

func (d *Delegated) requestURL(link string) (string, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("url", link)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *Delegated) apiFailed(name string, err error) {
	d.logger.Warn("Delegated API request failed", slog.String("name", name), slog.Any("err", err))
	if d.breaker != nil && d.breaker.RecordFailure() {
		d.logger.Warn("Delegated API circuit opened, remaining links go straight to direct probing")
	}
}

// looseNumber accepts 200, 200.5, "200" and "0.35s" alike. Anything that
// does not start with a number decodes to zero.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}

	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}

	*n = looseNumber(leadingFloat(strings.TrimSpace(s)))
	return nil
}

func leadingFloat(s string) float64 {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || (end == 0 && (s[end] == '-' || s[end] == '+'))) {
		end++
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
		end--
	}
	return 0
}
