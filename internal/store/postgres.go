// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-trending/internal/model"
)

const postgresUpsert = `
	INSERT INTO trending_repos (name, url, description, language, stars, forks, date)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (url) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		language = EXCLUDED.language,
		stars = EXCLUDED.stars,
		forks = EXCLUDED.forks,
		date = EXCLUDED.date
	WHERE trending_repos.date < EXCLUDED.date
`

// execer is the subset of pgxpool.Pool used for writes.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a Store backed by a PostgreSQL database.
type PostgresStore struct {
	pool   *pgxpool.Pool
	db     execer
	dsn    string
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresStore connects to the PostgreSQL database at dsn.
func NewPostgresStore(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	o := buildOptions(opts)
	return &PostgresStore{
		pool:   pool,
		db:     pool,
		dsn:    dsn,
		logger: logger.With("store", "postgres"),
		now:    o.now,
	}, nil
}

// EnsureSchema applies the embedded PostgreSQL migrations.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(s.dsn))
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Debug("Schema is up to date")
	return nil
}

// migrateURL rewrites a postgres:// URL to the scheme registered by the pgx/v5 migrate driver.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// UpsertBatch writes repos in order, one autocommitted statement per record.
func (s *PostgresStore) UpsertBatch(ctx context.Context, repos []model.TrendingRepo) error {
	if len(repos) == 0 {
		return nil
	}

	day := today(s.now())

	var stats batchStats
	for i, r := range repos {
		tag, err := s.db.Exec(ctx, postgresUpsert,
			r.Name, r.URL, toNullString(r.Description), toNullString(r.Language),
			r.Stars, r.Forks, day,
		)
		if err != nil {
			return fmt.Errorf("upserting %s (record %d of %d): %w", r.URL, i+1, len(repos), err)
		}
		stats.record(tag.RowsAffected())
	}

	s.logger.Info("Upserted trending repositories", "date", day.Format(dateLayout), "written", stats.written, "skipped", stats.skipped)
	return nil
}

// Get returns the row stored for url.
func (s *PostgresStore) Get(ctx context.Context, url string) (*model.TrendingRepo, error) {
	var repo model.TrendingRepo
	err := s.db.QueryRow(ctx, `
		SELECT id, name, url, description, language, stars, forks, date
		FROM trending_repos
		WHERE url = $1
	`, url).Scan(&repo.ID, &repo.Name, &repo.URL, &repo.Description, &repo.Language, &repo.Stars, &repo.Forks, &repo.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return &repo, nil
}

// Count returns the number of stored rows.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM trending_repos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
