// Package ghclient implements the GitHub REST event source.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"

	// defaultTimeout bounds a single HTTP round trip.
	defaultTimeout = 30 * time.Second

	// maxRateLimitWait is the longest the client sleeps for a quota
	// reset before giving up and surfacing the error instead.
	maxRateLimitWait = time.Hour

	acceptHeader = "application/vnd.github+json"
	userAgent    = "repopulse"
)

type clientConfig struct {
	baseURL string
	token   string
	http    *http.Client
	clock   clockwork.Clock
}

// ClientOption customizes a Client.
type ClientOption func(*clientConfig)

// WithBaseURL points the client at a different API root, e.g. a GitHub
// Enterprise host or a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *clientConfig) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithToken sets the bearer token for authenticated requests.
// Unauthenticated requests work but carry a much smaller quota.
func WithToken(token string) ClientOption {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *clientConfig) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRequestClock replaces the clock used for rate-limit waits.
func WithRequestClock(clock clockwork.Clock) ClientOption {
	return func(c *clientConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		clock:   clockwork.NewRealClock(),
	}
}

// Client talks to the GitHub REST API. Responses carrying an ETag are
// cached so unchanged resources replay from memory via conditional
// requests instead of burning rate-limit quota.
type Client struct {
	cfg   clientConfig
	cache *respCache
	calls atomic.Int64
}

// NewClient creates a GitHub API client.
func NewClient(opts ...ClientOption) *Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{cfg: cfg, cache: newRespCache()}
}

// APICalls implements the EventSource interface. Every HTTP round trip
// counts, including conditional requests answered with 304.
func (c *Client) APICalls() int {
	return int(c.calls.Load())
}

// get fetches a URL, retrying once after a rate-limit reset when the
// wait is short enough to be worth sitting out.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		body, err := c.fetch(ctx, url)
		var rle *RateLimitError
		if errors.As(err, &rle) && attempt == 0 && rle.Wait <= maxRateLimitWait {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-c.cfg.clock.After(rle.Wait):
			}
			continue
		}
		return body, err
	}
}

// fetch performs a single conditional GET.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if c.cfg.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.token)
	}
	if etag := c.cache.etag(url); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	c.calls.Add(1)
	resp, err := c.cfg.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
		}
		c.cache.put(url, resp.Header.Get("ETag"), body)
		return body, nil

	case http.StatusNotModified:
		return c.cache.body(url), nil

	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			reset := parseResetHeader(resp.Header.Get("X-RateLimit-Reset"))
			wait := max(reset.Sub(c.cfg.clock.Now()), 0)
			return nil, &RateLimitError{Reset: reset, Wait: wait}
		}
		fallthrough

	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, &APIError{URL: url, Status: resp.StatusCode, Snippet: string(snippet)}
	}
}

// parseResetHeader converts the epoch-seconds reset header. A missing
// or garbled header reads as the zero time, which callers treat as an
// immediately expired window.
func parseResetHeader(raw string) time.Time {
	var epoch int64
	if _, err := fmt.Sscanf(raw, "%d", &epoch); err != nil || epoch <= 0 {
		return time.Time{}
	}
	return time.Unix(epoch, 0)
}

// cachedResponse holds one URL's last full response.
type cachedResponse struct {
	etag string
	sum  uint64
	body []byte
}

// respCache stores ETag and body per URL for conditional GET requests.
// A 304 replays the cached body without consuming rate-limit quota. The
// body checksum catches ETag rotation on unchanged content, so a page
// that merely re-validated keeps its existing entry.
//
// There is no eviction. The cache lives as long as the Client and is
// bounded by the number of distinct URLs queried in one run.
type respCache struct {
	mu      sync.Mutex
	entries map[string]cachedResponse
}

func newRespCache() *respCache {
	return &respCache{entries: make(map[string]cachedResponse)}
}

func (rc *respCache) etag(url string) string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.entries[url].etag
}

func (rc *respCache) body(url string) []byte {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.entries[url].body
}

func (rc *respCache) put(url, etag string, body []byte) {
	if etag == "" {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	sum := xxhash.Sum64(body)
	if entry, ok := rc.entries[url]; ok && entry.sum == sum {
		entry.etag = etag
		rc.entries[url] = entry
		return
	}
	rc.entries[url] = cachedResponse{etag: etag, sum: sum, body: body}
}
