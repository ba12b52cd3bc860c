// internal/github/client.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github-trending/internal/model"
)

const perPage = 25

// Client fetches trending repositories through the GitHub search API.
// It approximates the trending page with repositories created inside the
// requested window, sorted by stars.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewClient creates and configures a new Client instance.
// An empty token yields an unauthenticated client with the lower search rate limit.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	httpClient := &http.Client{}
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = timeout

	return &Client{
		gh:     github.NewClient(httpClient),
		logger: logger.With("source", "search"),
		now:    time.Now,
	}
}

// FetchRepos runs one search for q and returns the first page of results.
func (c *Client) FetchRepos(ctx context.Context, q model.Query) ([]model.TrendingRepo, error) {
	if q.SpokenLanguageCode != "" {
		c.logger.Debug("Spoken language filter is not supported by the search API", "spoken_language_code", q.SpokenLanguageCode)
	}

	query := searchQuery(q, c.now())
	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	c.logger.Debug("Searching repositories", "query", query)

	result, _, err := c.gh.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("searching repositories: %w", err)
	}

	repos := make([]model.TrendingRepo, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, toTrendingRepo(r))
	}

	c.logger.Debug("Search complete", "total", result.GetTotal(), "returned", len(repos))
	return repos, nil
}

// searchQuery builds the search qualifier string for q as of now.
func searchQuery(q model.Query, now time.Time) string {
	since := now.UTC().AddDate(0, 0, -q.Since.Days())
	parts := []string{"created:>=" + since.Format("2006-01-02")}
	if q.Language != "" {
		parts = append(parts, "language:"+q.Language)
	}
	return strings.Join(parts, " ")
}

// toTrendingRepo translates a github.Repository object to our internal model.TrendingRepo.
func toTrendingRepo(r *github.Repository) model.TrendingRepo {
	return model.TrendingRepo{
		Name:        r.GetName(),
		URL:         r.GetHTMLURL(),
		Description: model.StringPtr(r.GetDescription()),
		Language:    model.StringPtr(r.GetLanguage()),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
	}
}
