// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github-trending/internal/model"
)

const dateLayout = "2006-01-02"

// The WHERE clause is the freshness guard: a row already written today is left untouched.
const sqliteUpsert = `
	INSERT INTO trending_repos (name, url, description, language, stars, forks, date)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		language = excluded.language,
		stars = excluded.stars,
		forks = excluded.forks,
		date = excluded.date
	WHERE date(trending_repos.date) < date(excluded.date)
`

// SQLiteStore is a Store backed by a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path.
func NewSQLiteStore(path string, logger *slog.Logger, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection per invocation; SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	o := buildOptions(opts)
	return &SQLiteStore{
		db:     db,
		logger: logger.With("store", "sqlite", "path", path),
		now:    o.now,
	}, nil
}

// EnsureSchema applies the embedded SQLite migrations.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	defer src.Close()

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	// m.Close would also close s.db, so only the source is released.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Debug("Schema is up to date")
	return nil
}

// UpsertBatch writes repos in order, one autocommitted statement per record.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, repos []model.TrendingRepo) error {
	if len(repos) == 0 {
		return nil
	}

	day := today(s.now()).Format(dateLayout)

	stmt, err := s.db.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	var stats batchStats
	for i, r := range repos {
		res, err := stmt.ExecContext(ctx,
			r.Name, r.URL, toNullString(r.Description), toNullString(r.Language),
			r.Stars, r.Forks, day,
		)
		if err != nil {
			return fmt.Errorf("upserting %s (record %d of %d): %w", r.URL, i+1, len(repos), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("upserting %s: %w", r.URL, err)
		}
		stats.record(n)
	}

	s.logger.Info("Upserted trending repositories", "date", day, "written", stats.written, "skipped", stats.skipped)
	return nil
}

// Get returns the row stored for url.
func (s *SQLiteStore) Get(ctx context.Context, url string) (*model.TrendingRepo, error) {
	var (
		repo        model.TrendingRepo
		description sql.NullString
		language    sql.NullString
		date        string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, url, description, language, stars, forks, strftime('%Y-%m-%d', date)
		FROM trending_repos
		WHERE url = ?
	`, url).Scan(&repo.ID, &repo.Name, &repo.URL, &description, &language, &repo.Stars, &repo.Forks, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	repo.Description = fromNullString(description)
	repo.Language = fromNullString(language)
	repo.Date, err = time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing stored date %q: %w", date, err)
	}
	return &repo, nil
}

// Count returns the number of stored rows.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trending_repos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
