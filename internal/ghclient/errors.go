package ghclient

import (
	"fmt"
	"time"
)

// APIError reports a non-success response from the GitHub API.
type APIError struct {
	URL     string
	Status  int
	Snippet string
}

func (e *APIError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("GET %s returned %d", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s returned %d: %s", e.URL, e.Status, e.Snippet)
}

// RateLimitError reports an exhausted API quota. Wait is how long until
// the quota resets; the client retries on its own when that is short
// enough, so seeing this error means the reset is too far away.
type RateLimitError struct {
	Reset time.Time
	Wait  time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exhausted, resets at %s. Check that a token with remaining quota is configured, or retry in %s",
		e.Reset.Format(time.RFC3339), e.Wait.Round(time.Second))
}
