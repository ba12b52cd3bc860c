// internal/syncer/syncer.go
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github-trending/internal/model"
)

// Fetcher returns the trending repositories for a query, in listing order.
type Fetcher interface {
	FetchRepos(ctx context.Context, q model.Query) ([]model.TrendingRepo, error)
}

// Writer is the part of the store the syncer needs.
type Writer interface {
	UpsertBatch(ctx context.Context, repos []model.TrendingRepo) error
}

// Syncer orchestrates the fetching and storing of data.
type Syncer struct {
	fetcher Fetcher
	store   Writer
	logger  *slog.Logger
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(fetcher Fetcher, store Writer, logger *slog.Logger) *Syncer {
	return &Syncer{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

// Sync performs one fetch and one batch upsert. It returns the number of records handed to the store.
func (s *Syncer) Sync(ctx context.Context, q model.Query) (int, error) {
	logger := s.logger.With("since", string(q.Since), "language", q.Language, "spoken_language_code", q.SpokenLanguageCode)
	logger.Info("Starting sync")
	start := time.Now()

	repos, err := s.fetcher.FetchRepos(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("fetching trending repositories: %w", err)
	}
	logger.Info("Fetched trending repositories", "count", len(repos))

	for _, r := range repos {
		if err := r.Validate(); err != nil {
			return 0, err
		}
	}

	if len(repos) == 0 {
		logger.Warn("Fetcher returned no repositories, nothing to store")
		return 0, nil
	}

	if err := s.store.UpsertBatch(ctx, repos); err != nil {
		return 0, fmt.Errorf("saving trending repositories: %w", err)
	}

	logger.Info("Sync finished", "count", len(repos), "duration", time.Since(start).String())
	return len(repos), nil
}
