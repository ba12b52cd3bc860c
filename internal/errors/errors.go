// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidSince is returned when --since is not one of daily, weekly or monthly.
type ErrInvalidSince struct {
	Value string
}

func (e *ErrInvalidSince) Error() string {
	return fmt.Sprintf("invalid time range: %q, expected one of daily, weekly, monthly", e.Value)
}

// ErrUnsupportedSource is returned for an unknown TRENDING_SOURCE.
type ErrUnsupportedSource struct {
	Source string
}

func (e *ErrUnsupportedSource) Error() string {
	return fmt.Sprintf("unsupported trending source: %q, expected 'scrape' or 'search'", e.Source)
}

// ErrInvalidRecord is returned when a fetched record cannot be stored.
type ErrInvalidRecord struct {
	URL    string
	Reason string
}

func (e *ErrInvalidRecord) Error() string {
	return fmt.Sprintf("invalid trending record %q: %s", e.URL, e.Reason)
}

// ErrUnexpectedStatus is returned when the trending page answers with a non-200 status.
type ErrUnexpectedStatus struct {
	URL        string
	StatusCode int
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
