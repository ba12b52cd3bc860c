// internal/trending/scraper.go
package trending

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	custom_errors "github-trending/internal/errors"
	"github-trending/internal/model"
)

const userAgent = "github-trending/1.0 (+https://github.com/trending)"

// Scraper reads the public trending page and turns each listed repository into a record.
type Scraper struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewScraper returns a Scraper for the trending page at baseURL.
func NewScraper(baseURL string, timeout time.Duration, logger *slog.Logger) *Scraper {
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("source", "scrape"),
	}
}

// FetchRepos downloads the trending page for q and parses it in page order.
func (s *Scraper) FetchRepos(ctx context.Context, q model.Query) ([]model.TrendingRepo, error) {
	pageURL, err := s.pageURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	s.logger.Debug("Fetching trending page", "url", pageURL.String())

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching trending page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &custom_errors.ErrUnexpectedStatus{URL: pageURL.String(), StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing trending page: %w", err)
	}

	repos, err := parseRows(doc, pageURL)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Parsed trending page", "repos", len(repos))
	return repos, nil
}

// pageURL builds /trending[/<language>]?since=...&spoken_language_code=...
func (s *Scraper) pageURL(q model.Query) (*url.URL, error) {
	raw := s.baseURL
	if q.Language != "" {
		raw += "/" + url.PathEscape(strings.ToLower(q.Language))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid trending url %q: %w", raw, err)
	}

	params := u.Query()
	params.Set("since", string(q.Since))
	if q.SpokenLanguageCode != "" {
		params.Set("spoken_language_code", q.SpokenLanguageCode)
	}
	u.RawQuery = params.Encode()
	return u, nil
}

func parseRows(doc *goquery.Document, pageURL *url.URL) ([]model.TrendingRepo, error) {
	var (
		repos    []model.TrendingRepo
		parseErr error
	)

	doc.Find("article.Box-row").EachWithBreak(func(i int, row *goquery.Selection) bool {
		repo, err := parseRow(row, pageURL)
		if err != nil {
			parseErr = fmt.Errorf("row %d: %w", i+1, err)
			return false
		}
		repos = append(repos, repo)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return repos, nil
}

func parseRow(row *goquery.Selection, pageURL *url.URL) (model.TrendingRepo, error) {
	href, ok := row.Find("h2 a").First().Attr("href")
	if !ok {
		return model.TrendingRepo{}, fmt.Errorf("repository link not found")
	}

	path := strings.Trim(strings.TrimSpace(href), "/")
	owner, name, found := strings.Cut(path, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return model.TrendingRepo{}, fmt.Errorf("unexpected repository link %q", href)
	}

	link := pageURL.ResolveReference(&url.URL{Path: "/" + owner + "/" + name})

	stars, err := parseCount(row.Find(`a[href$="/stargazers"]`).First().Text())
	if err != nil {
		return model.TrendingRepo{}, fmt.Errorf("%s stars: %w", path, err)
	}
	forks, err := parseCount(row.Find(`a[href$="/forks"]`).First().Text())
	if err != nil {
		return model.TrendingRepo{}, fmt.Errorf("%s forks: %w", path, err)
	}

	return model.TrendingRepo{
		Name:        name,
		URL:         link.String(),
		Description: model.StringPtr(collapseSpace(row.Find("p").First().Text())),
		Language:    model.StringPtr(row.Find(`span[itemprop="programmingLanguage"]`).First().Text()),
		Stars:       stars,
		Forks:       forks,
	}, nil
}

// parseCount reads counters such as "12,345". A missing counter is zero.
func parseCount(text string) (int, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", text)
	}
	return n, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
