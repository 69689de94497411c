package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repopulse/repopulse/schema"
)

var clientTestRepo = schema.RepoRef{Owner: "octocat", Name: "hello-world"}

const eventsJSON = `[{"id":"100","type":"WatchEvent","actor":{"login":"alice"},"payload":{},"created_at":"2026-05-01T12:00:00Z"}]`

func newTestServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClient(WithBaseURL(server.URL))
}

func TestClientConditionalRequests(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/events", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("If-None-Match") == `"etag-1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"etag-1"`)
		fmt.Fprint(w, eventsJSON)
	})
	client := newTestServer(t, mux)

	first, err := client.ListEvents(context.Background(), clientTestRepo, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// The second request validates with If-None-Match and replays the
	// cached body on 304.
	second, err := client.ListEvents(context.Background(), clientTestRepo, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, client.APICalls())
}

func TestClientETagRotationOnUnchangedBody(t *testing.T) {
	var etags []string
	serve := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/events", func(w http.ResponseWriter, r *http.Request) {
		etags = append(etags, r.Header.Get("If-None-Match"))
		serve++
		// Same body each time, but the server rotates the ETag on the
		// second response.
		w.Header().Set("ETag", fmt.Sprintf(`"etag-%d"`, serve))
		fmt.Fprint(w, eventsJSON)
	})
	client := newTestServer(t, mux)

	for range 3 {
		events, err := client.ListEvents(context.Background(), clientTestRepo, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
	}

	// Each revalidation advertises the most recent ETag even though the
	// body never changed.
	assert.Equal(t, []string{"", `"etag-1"`, `"etag-2"`}, etags)
}

func TestClientRateLimitRetry(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/events", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Unix()))
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, eventsJSON)
	})
	client := newTestServer(t, mux)

	// The reset is already due, so the client retries immediately.
	events, err := client.ListEvents(context.Background(), clientTestRepo, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 2, calls)
}

func TestClientRateLimitResetTooFarAway(t *testing.T) {
	mux := http.NewServeMux()
	reset := time.Now().Add(2 * time.Hour)
	mux.HandleFunc("/repos/octocat/hello-world/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))
		w.WriteHeader(http.StatusForbidden)
	})
	client := newTestServer(t, mux)

	_, err := client.ListEvents(context.Background(), clientTestRepo, 1)
	require.Error(t, err)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Greater(t, rle.Wait, time.Hour)
	assert.Contains(t, err.Error(), "rate limit exhausted")
	assert.Equal(t, 1, client.APICalls())
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/events", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream exploded")
	})
	client := newTestServer(t, mux)

	_, err := client.ListEvents(context.Background(), clientTestRepo, 1)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Snippet, "upstream exploded")
	assert.Contains(t, apiErr.URL, "/repos/octocat/hello-world/events")
}

func TestClientRequestHeaders(t *testing.T) {
	var got http.Header
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, `{"stargazers_count":1,"forks_count":0,"open_issues_count":0,"pushed_at":"2026-05-01T12:00:00Z"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := NewClient(WithBaseURL(server.URL), WithToken("token123"))

	_, err := client.GetRepoOverview(context.Background(), clientTestRepo)
	require.NoError(t, err)

	assert.Equal(t, "Bearer token123", got.Get("Authorization"))
	assert.Equal(t, acceptHeader, got.Get("Accept"))
	assert.Equal(t, userAgent, got.Get("User-Agent"))
}

func TestClientWithoutToken(t *testing.T) {
	var auth string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"stargazers_count":0,"forks_count":0,"open_issues_count":0,"pushed_at":"2026-05-01T12:00:00Z"}`)
	})
	client := newTestServer(t, mux)

	_, err := client.GetRepoOverview(context.Background(), clientTestRepo)
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestClientContextCancellation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/events", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	client := newTestServer(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListEvents(ctx, clientTestRepo, 1)
	require.Error(t, err)
}
