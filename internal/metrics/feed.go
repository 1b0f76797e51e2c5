// internal/metrics/feed.go
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/unclebandit/jetmatch-backend/internal/model"
)

// FetchResult reports the outcome of one feed call. Failures travel in Error,
// never as a Go error.
type FetchResult struct {
	Success  bool                   `json:"success"`
	Snapshot *model.MetricsSnapshot `json:"snapshot,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func failed(format string, args ...any) FetchResult {
	return FetchResult{Error: fmt.Sprintf(format, args...)}
}

// Feed is the external social metrics source.
type Feed interface {
	Fetch(ctx context.Context, handle string) FetchResult
}

// HTTPFeed reads snapshots from GET {BaseURL}/metrics/{handle}, throttled by a token bucket.
type HTTPFeed struct {
	BaseURL string
	Client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewHTTPFeed(baseURL string, rps float64) *HTTPFeed {
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &HTTPFeed{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		now:     time.Now,
	}
}

func (f *HTTPFeed) Fetch(ctx context.Context, handle string) FetchResult {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return failed("handle is required")
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return failed("rate limit wait: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/metrics/"+url.PathEscape(handle), nil)
	if err != nil {
		return failed("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return failed("fetch %s: %v", handle, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return failed("unknown handle %s", handle)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return failed("feed returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var snap model.MetricsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return failed("decode snapshot for %s: %v", handle, err)
	}
	snap.Handle = handle
	if snap.LastFetched == nil {
		now := f.now().UTC()
		snap.LastFetched = &now
	}
	return FetchResult{Success: true, Snapshot: &snap}
}

// UnavailableFeed is used when no feed URL is configured.
type UnavailableFeed struct{}

func (UnavailableFeed) Fetch(_ context.Context, handle string) FetchResult {
	return failed("metrics feed not configured, cannot fetch %s", handle)
}

var (
	_ Feed = (*HTTPFeed)(nil)
	_ Feed = UnavailableFeed{}
)
