// Package fetcher downloads the schedule set from the upstream source.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"schedule_bot/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and decodes schedule sets.
type Fetcher struct {
	client  HTTPClient
	url     string
	loc     *time.Location
	timeout time.Duration
}

// New creates a Fetcher reading from url. Lesson wall-clock times are
// interpreted in loc.
func New(client HTTPClient, url string, loc *time.Location) *Fetcher {
	return &Fetcher{
		client:  client,
		url:     url,
		loc:     loc,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads the current schedule set.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ScheduleBot/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	schedules, err := Decode(io.LimitReader(resp.Body, 20*1024*1024), f.loc)
	if err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}
	return schedules, nil
}
