// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github-trending/internal/model"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrNotFound is returned by Get when no row has the given url.
var ErrNotFound = errors.New("trending repository not found")

// Store persists trending repositories into the trending_repos table.
type Store interface {
	// EnsureSchema creates the table if it does not exist. It is safe to call repeatedly.
	EnsureSchema(ctx context.Context) error
	// UpsertBatch inserts new urls and refreshes existing rows at most once per day.
	UpsertBatch(ctx context.Context, repos []model.TrendingRepo) error
	Get(ctx context.Context, url string) (*model.TrendingRepo, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to compute the write date.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns a PostgreSQL store for postgres:// URLs and a SQLite store for anything else.
func Open(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (Store, error) {
	if IsPostgresDSN(dsn) {
		return NewPostgresStore(ctx, dsn, logger, opts...)
	}
	return NewSQLiteStore(dsn, logger, opts...)
}

// IsPostgresDSN reports whether dsn points at a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// today is the UTC calendar date of t. It is computed once per batch.
func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// toNullString is a helper to convert a pointer-to-string to a sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{
		String: *s,
		Valid:  true,
	}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

type batchStats struct {
	written int
	skipped int
}

func (b *batchStats) record(rowsAffected int64) {
	if rowsAffected > 0 {
		b.written++
		return
	}
	b.skipped++
}
