// Package report persists pipeline reports and serves the latest one per
// dataset.
package report

import (
	"context"
	"fmt"

	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/pipeline"
	"github.com/go-sod/seqwin/internal/report/cache"
	reportDb "github.com/go-sod/seqwin/internal/report/database"
)

// NewStore writes through to db. c may be nil to run without a cache.
func NewStore(db *reportDb.DB, c *cache.Cache) *Store {
	return &Store{db: db, cache: c}
}

type Store struct {
	db    *reportDb.DB
	cache *cache.Cache
}

func (s *Store) Save(ctx context.Context, r *pipeline.Report) error {
	if err := s.db.Store(ctx, r); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, r); err != nil {
			logging.FromContext(ctx).Warnf("unable cache report: %v", err)
		}
	}
	return nil
}

// Latest returns the latest report of dataset, nil if there is none. Cache
// failures fall back to the database.
func (s *Store) Latest(ctx context.Context, dataset string) (*pipeline.Report, error) {
	logger := logging.FromContext(ctx)
	if s.cache != nil {
		r, err := s.cache.Get(ctx, dataset)
		if err != nil {
			logger.Warnf("unable read report cache: %v", err)
		}
		if r != nil {
			return r, nil
		}
	}
	r, err := s.db.Latest(dataset)
	if err != nil {
		return nil, fmt.Errorf("latest report of %s: %w", dataset, err)
	}
	if r != nil && s.cache != nil {
		if err := s.cache.Set(ctx, r); err != nil {
			logger.Warnf("unable cache report: %v", err)
		}
	}
	return r, nil
}

func (s *Store) History(_ context.Context, dataset string) ([]pipeline.Report, error) {
	return s.db.FindByDataset(dataset)
}
