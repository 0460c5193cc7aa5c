package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"hotel_monitor/internal/adapters/observability"
	"hotel_monitor/internal/domain"
)

const maxBody = 8 << 20

// Client calls the external scraping service. One attempt per call; failures are never retried.
type Client struct {
	base    string
	hc      *http.Client
	timeout time.Duration
}

func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type envelope struct {
	Success bool             `json:"success"`
	Data    *domain.Snapshot `json:"data"`
	Error   string           `json:"error"`
}

// errorBody covers both the scraper's own envelope and FastAPI's {"detail": ...}.
type errorBody struct {
	Detail any    `json:"detail"`
	Error  string `json:"error"`
}

// Scrape posts {url, checkin} to <base>/scrape and returns the snapshot.
// Errors are *domain.Error of kind upstream_unavailable or upstream_failure.
func (c *Client) Scrape(ctx context.Context, req domain.ScrapeRequest) (domain.Snapshot, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Snapshot{}, domain.NewInternalError("Failed to encode scrape request", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/scrape", bytes.NewReader(body))
	if err != nil {
		return domain.Snapshot{}, domain.NewInternalError("Failed to build scrape request", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", "hotel-monitor/1.0")

	start := time.Now()
	resp, err := c.hc.Do(hreq)
	if err != nil {
		observability.ObserveExternal("scraper", "/scrape", 0, time.Since(start))
		return domain.Snapshot{}, c.transportError(ctx, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("scraper", "/scrape", resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return domain.Snapshot{}, c.transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Snapshot{}, statusError(resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.Snapshot{}, domain.NewUpstreamFailureError("Scraper returned an invalid response", err)
	}
	if !env.Success || env.Data == nil {
		msg := env.Error
		if msg == "" {
			msg = "Failed to scrape hotel data"
		}
		return domain.Snapshot{}, domain.NewUpstreamFailureError(msg, nil)
	}
	return *env.Data, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return domain.NewUpstreamUnavailableError("Scrape request was cancelled", err)
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return domain.NewUpstreamUnavailableError(fmt.Sprintf("Scraper service timed out after %s", c.timeout), err)
	}
	return domain.NewUpstreamUnavailableError(
		fmt.Sprintf("Scraper service is not available. Please ensure the scraper is running at %s.", c.base), err)
}

func statusError(status int, raw []byte) error {
	cause := fmt.Errorf("scraper status %d", status)
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		if s, ok := eb.Detail.(string); ok && s != "" {
			return domain.NewUpstreamFailureError(s, cause)
		}
		if eb.Error != "" {
			return domain.NewUpstreamFailureError(eb.Error, cause)
		}
	}
	return domain.NewUpstreamFailureError(fmt.Sprintf("Scraper returned status %d", status), cause)
}
