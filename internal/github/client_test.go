// internal/github/client_test.go
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-trending/internal/model"
)

const searchBody = `{
	"total_count": 2,
	"incomplete_results": false,
	"items": [
		{"id": 1, "name": "foo", "html_url": "https://github.com/acme/foo", "description": "A foo", "language": "Go", "stargazers_count": 120, "forks_count": 7},
		{"id": 2, "name": "bar", "html_url": "https://github.com/acme/bar", "description": "", "language": null, "stargazers_count": 5, "forks_count": 0}
	]
}`

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

// setupTestClient creates a httptest server and a github client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.now = func() time.Time { return fixedNow }

	testClient, err := github.NewClient(server.Client()).WithEnterpriseURLs(server.URL, server.URL)
	require.NoError(t, err)
	client.gh = testClient

	return client
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "created:>=2024-05-09", searchQuery(model.Query{Since: model.SinceDaily}, fixedNow))
	assert.Equal(t, "created:>=2024-05-03 language:rust", searchQuery(model.Query{Since: model.SinceWeekly, Language: "rust"}, fixedNow))
	assert.Equal(t, "created:>=2024-04-10", searchQuery(model.Query{Since: model.SinceMonthly, SpokenLanguageCode: "en"}, fixedNow))
}

func TestClient_FetchRepos(t *testing.T) {
	t.Run("maps search results", func(t *testing.T) {
		client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/search/repositories", r.URL.Path)
			assert.Equal(t, "created:>=2024-05-03 language:go", r.URL.Query().Get("q"))
			assert.Equal(t, "stars", r.URL.Query().Get("sort"))
			assert.Equal(t, "25", r.URL.Query().Get("per_page"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, searchBody)
		}))

		repos, err := client.FetchRepos(context.Background(), model.Query{Language: "go", Since: model.SinceWeekly})

		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, "foo", repos[0].Name)
		assert.Equal(t, "https://github.com/acme/foo", repos[0].URL)
		require.NotNil(t, repos[0].Description)
		assert.Equal(t, "A foo", *repos[0].Description)
		assert.Equal(t, 120, repos[0].Stars)
		assert.Equal(t, 7, repos[0].Forks)
		assert.Nil(t, repos[1].Description)
		assert.Nil(t, repos[1].Language)
	})

	t.Run("surfaces rate limit errors", func(t *testing.T) {
		var requestCount int32
		client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.Header().Set("X-RateLimit-Limit", "10")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Minute).Unix()))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
		}))

		_, err := client.FetchRepos(context.Background(), model.Query{Since: model.SinceDaily})

		var rateErr *github.RateLimitError
		assert.ErrorAs(t, err, &rateErr)
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
	})

	t.Run("surfaces server errors without retrying", func(t *testing.T) {
		var requestCount int32
		client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.FetchRepos(context.Background(), model.Query{Since: model.SinceDaily})

		require.Error(t, err)
		var ghErr *github.ErrorResponse
		require.ErrorAs(t, err, &ghErr)
		assert.Equal(t, http.StatusInternalServerError, ghErr.Response.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
	})
}
