// internal/model/models.go
package model

import (
	"strings"
	"time"

	custom_errors "github-trending/internal/errors"
)

// Since is the trending time window.
type Since string

const (
	SinceDaily   Since = "daily"
	SinceWeekly  Since = "weekly"
	SinceMonthly Since = "monthly"
)

// ParseSince validates a raw --since value.
func ParseSince(s string) (Since, error) {
	switch v := Since(strings.ToLower(strings.TrimSpace(s))); v {
	case SinceDaily, SinceWeekly, SinceMonthly:
		return v, nil
	default:
		return "", &custom_errors.ErrInvalidSince{Value: s}
	}
}

// Days returns the length of the window in days.
func (s Since) Days() int {
	switch s {
	case SinceWeekly:
		return 7
	case SinceMonthly:
		return 30
	default:
		return 1
	}
}

// Query holds the parameters passed to a fetcher.
type Query struct {
	SpokenLanguageCode string
	Language           string
	Since              Since
}

// TrendingRepo is a single row of the trending_repos table.
// ID and Date are assigned by the store.
type TrendingRepo struct {
	ID          int64
	Name        string
	URL         string
	Description *string
	Language    *string
	Stars       int
	Forks       int
	Date        time.Time
}

// Validate checks a record at the fetcher boundary.
func (r TrendingRepo) Validate() error {
	switch {
	case strings.TrimSpace(r.URL) == "":
		return &custom_errors.ErrInvalidRecord{URL: r.URL, Reason: "url is empty"}
	case strings.TrimSpace(r.Name) == "":
		return &custom_errors.ErrInvalidRecord{URL: r.URL, Reason: "name is empty"}
	case r.Stars < 0:
		return &custom_errors.ErrInvalidRecord{URL: r.URL, Reason: "stars is negative"}
	case r.Forks < 0:
		return &custom_errors.ErrInvalidRecord{URL: r.URL, Reason: "forks is negative"}
	}
	return nil
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
