package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPFetcher fetches the report from the device's HTTP endpoint.
type HTTPFetcher struct {
	url    string
	client *http.Client
	budget time.Duration
}

// NewHTTPFetcher creates a fetcher for the given device address. The
// address may be a bare host/IP (port 80 assumed) or host:port; the
// report is always served at path /.
func NewHTTPFetcher(addr string) *HTTPFetcher {
	return &HTTPFetcher{
		url:    deviceURL(addr),
		client: &http.Client{},
		budget: FetchBudget,
	}
}

// Fetch performs one GET with the fixed completion budget. The budget
// covers the whole transfer including the body read.
func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.budget)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	// A non-2xx status is treated identically to a connection failure:
	// no payload flows downstream.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: unexpected status %s", f.url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body from %s: %w", f.url, err)
	}

	return string(body), nil
}

// deviceURL normalizes a configured address into a full URL.
func deviceURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr + "/"
}
