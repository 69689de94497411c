// Package schema has configs, models and shared constants for all parts of repopulse.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RepoRef identifies a GitHub repository by owner and name.
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// String returns the canonical "owner/name" form.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// IsZero reports whether the reference is empty.
func (r RepoRef) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// ParseRepoRef parses "owner/name" into a RepoRef.
func ParseRepoRef(s string) (RepoRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("invalid repository %q. Check that it follows the owner/name format, e.g. golang/go", s)
	}
	return RepoRef{Owner: parts[0], Name: parts[1]}, nil
}

// PullRequest represents a pull request fetched from the GitHub API
// or reconstructed from cached events.
type PullRequest struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ReviewCount  int        `json:"review_count"`
	CommentCount int        `json:"comment_count"`
}

// Merged reports whether the pull request was merged.
func (p *PullRequest) Merged() bool {
	return p.MergedAt != nil && !p.MergedAt.IsZero()
}

// Issue represents an issue fetched from the GitHub API
// or reconstructed from cached events.
type Issue struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CommentCount int        `json:"comment_count"`
}

// ActivityEvent represents a single repository event from the GitHub
// events timeline (stars, forks, PR and issue activity).
type ActivityEvent struct {
	ID        string          `json:"id"`
	Repo      RepoRef         `json:"repo"`
	Type      EventType       `json:"type"`
	Actor     string          `json:"actor"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// RepoSnapshot bundles everything known about a repository within an
// analysis window. It is the unit the content hasher and the in-memory
// cache operate on.
type RepoSnapshot struct {
	Repo         RepoRef         `json:"repo"`
	PullRequests []PullRequest   `json:"pull_requests"`
	Issues       []Issue         `json:"issues"`
	Activities   []ActivityEvent `json:"activities"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// IsEmpty reports whether the snapshot holds no data at all.
func (s *RepoSnapshot) IsEmpty() bool {
	return s == nil || (len(s.PullRequests) == 0 && len(s.Issues) == 0 && len(s.Activities) == 0)
}

// RepoOverview carries repository-level totals from the GitHub API.
type RepoOverview struct {
	Repo       RepoRef   `json:"repo"`
	Stargazers int       `json:"stargazers"`
	Forks      int       `json:"forks"`
	OpenIssues int       `json:"open_issues"`
	PushedAt   time.Time `json:"pushed_at"`
}

// ContentHash is a cheap fingerprint of snapshot contents, used to skip
// recomputation when the underlying data has not changed.
type ContentHash string

// Equal compares two hashes.
func (h ContentHash) Equal(other ContentHash) bool {
	return h == other
}
