package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var (
	// ErrSourceUnavailable means the manifest could not be fetched at all.
	ErrSourceUnavailable = errors.New("manifest source unavailable")
	// ErrSourceFormat means the manifest was fetched but has the wrong shape.
	ErrSourceFormat = errors.New("manifest format error")
)

// Entry is one friend link. Link is empty when the manifest omitted it;
// Favicon is nil when the manifest has null or no third element.
type Entry struct {
	Name    string
	Link    string
	Favicon *string
}

type Client struct {
	url     string
	headers map[string]string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(url string, headers map[string]string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch downloads and parses the manifest.
func (c *Client) Fetch(ctx context.Context) ([]Entry, error) {
	c.logger.Info("Fetching manifest", slog.String("url", c.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSourceUnavailable, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrSourceUnavailable, resp.StatusCode)
	}

	entries, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Manifest fetched", slog.Int("links", len(entries)))
	return entries, nil
}

type document struct {
	Friends *[]json.RawMessage `json:"friends"`
}

// Parse decodes a manifest body of the form {"friends": [[name, url, favicon], ...]}.
func Parse(r io.Reader) ([]Entry, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFormat, err)
	}
	if doc.Friends == nil {
		return nil, fmt.Errorf("%w: missing friends array", ErrSourceFormat)
	}

	entries := make([]Entry, 0, len(*doc.Friends))
	for i, raw := range *doc.Friends {
		var fields []*string
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%w: friends[%d]: %v", ErrSourceFormat, i, err)
		}
		if fields == nil {
			return nil, fmt.Errorf("%w: friends[%d] is not an array", ErrSourceFormat, i)
		}
		entries = append(entries, Entry{
			Name:    field(fields, 0),
			Link:    field(fields, 1),
			Favicon: optional(fields, 2),
		})
	}

	return entries, nil
}

func optional(fields []*string, i int) *string {
	if i >= len(fields) {
		return nil
	}
	return fields[i]
}

func field(fields []*string, i int) string {
	if i >= len(fields) || fields[i] == nil {
		return ""
	}
	return *fields[i]
}
