package ghclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
)

var _ contract.EventSource = &Client{} // Compile-time check

// GitHub list endpoints serve at most 100 items per page. Listings here
// never walk past ten pages; the events API refuses to anyway, and for
// pull requests and issues the lookback cutoff lands long before that.
const (
	perPage      = 100
	maxListPages = 10
)

// eventWire mirrors one entry of the repository events response.
type eventWire struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Actor struct {
		Login string `json:"login"`
	} `json:"actor"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListEvents implements the EventSource interface.
func (c *Client) ListEvents(ctx context.Context, repo schema.RepoRef, page int) ([]schema.ActivityEvent, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/events?page=%d&per_page=%d",
		c.cfg.baseURL, repo.Owner, repo.Name, page, perPage)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var wires []eventWire
	if err := json.Unmarshal(body, &wires); err != nil {
		return nil, fmt.Errorf("failed to decode events for %s: %w", repo, err)
	}

	events := make([]schema.ActivityEvent, 0, len(wires))
	for _, w := range wires {
		events = append(events, schema.ActivityEvent{
			ID:        w.ID,
			Repo:      repo,
			Type:      schema.EventType(w.Type),
			Actor:     w.Actor.Login,
			CreatedAt: w.CreatedAt,
			Payload:   w.Payload,
		})
	}
	return events, nil
}

// pullWire mirrors one entry of the pull request list response.
type pullWire struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at"`
}

// ListPullRequests implements the EventSource interface. Pages are
// requested most recently updated first, so fetching stops at the first
// row older than since.
func (c *Client) ListPullRequests(ctx context.Context, repo schema.RepoRef, since time.Time) ([]schema.PullRequest, error) {
	var prs []schema.PullRequest
	for page := 1; page <= maxListPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls?state=all&sort=updated&direction=desc&page=%d&per_page=%d",
			c.cfg.baseURL, repo.Owner, repo.Name, page, perPage)
		body, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}

		var wires []pullWire
		if err := json.Unmarshal(body, &wires); err != nil {
			return nil, fmt.Errorf("failed to decode pull requests for %s: %w", repo, err)
		}

		reachedSince := false
		for _, w := range wires {
			if !since.IsZero() && w.UpdatedAt.Before(since) {
				reachedSince = true
				break
			}
			prs = append(prs, schema.PullRequest{
				ID:        w.ID,
				Number:    w.Number,
				Title:     w.Title,
				Author:    w.User.Login,
				State:     w.State,
				CreatedAt: w.CreatedAt,
				UpdatedAt: w.UpdatedAt,
				MergedAt:  w.MergedAt,
			})
		}

		if reachedSince || len(wires) < perPage {
			break
		}
	}
	return prs, nil
}

// issueWire mirrors one entry of the issues list response. The issues
// endpoint also surfaces pull requests; those rows carry a pull_request
// key and are dropped.
type issueWire struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	Comments    int             `json:"comments"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ClosedAt    *time.Time      `json:"closed_at"`
	PullRequest json.RawMessage `json:"pull_request"`
}

// ListIssues implements the EventSource interface. The since filter is
// applied server-side, so paging just runs until a short page.
func (c *Client) ListIssues(ctx context.Context, repo schema.RepoRef, since time.Time) ([]schema.Issue, error) {
	var issues []schema.Issue
	for page := 1; page <= maxListPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/issues?state=all&page=%d&per_page=%d",
			c.cfg.baseURL, repo.Owner, repo.Name, page, perPage)
		if !since.IsZero() {
			url += "&since=" + since.UTC().Format(time.RFC3339)
		}
		body, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}

		var wires []issueWire
		if err := json.Unmarshal(body, &wires); err != nil {
			return nil, fmt.Errorf("failed to decode issues for %s: %w", repo, err)
		}

		for _, w := range wires {
			if len(w.PullRequest) > 0 {
				continue
			}
			issues = append(issues, schema.Issue{
				ID:           w.ID,
				Number:       w.Number,
				Title:        w.Title,
				Author:       w.User.Login,
				State:        w.State,
				CreatedAt:    w.CreatedAt,
				UpdatedAt:    w.UpdatedAt,
				ClosedAt:     w.ClosedAt,
				CommentCount: w.Comments,
			})
		}

		if len(wires) < perPage {
			break
		}
	}
	return issues, nil
}

// repoWire mirrors the repository overview response.
type repoWire struct {
	Stargazers int       `json:"stargazers_count"`
	Forks      int       `json:"forks_count"`
	OpenIssues int       `json:"open_issues_count"`
	PushedAt   time.Time `json:"pushed_at"`
}

// GetRepoOverview implements the EventSource interface.
func (c *Client) GetRepoOverview(ctx context.Context, repo schema.RepoRef) (schema.RepoOverview, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.cfg.baseURL, repo.Owner, repo.Name)
	body, err := c.get(ctx, url)
	if err != nil {
		return schema.RepoOverview{}, err
	}

	var wire repoWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return schema.RepoOverview{}, fmt.Errorf("failed to decode repository overview for %s: %w", repo, err)
	}
	return schema.RepoOverview{
		Repo:       repo,
		Stargazers: wire.Stargazers,
		Forks:      wire.Forks,
		OpenIssues: wire.OpenIssues,
		PushedAt:   wire.PushedAt,
	}, nil
}
