package observation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/seqwin/internal/logging"
	obsDb "github.com/go-sod/seqwin/internal/observation/database"
	"github.com/go-sod/seqwin/internal/observation/model"
)

type retentionOptions struct {
	maxItemsStored int
	maxStorageTime time.Duration
	rebuildDBTime  time.Duration
}

type (
	fetchDatasetsFn  func() ([]string, error)
	countByDatasetFn func(string) (int, error)
	fetchByDatasetFn func(string, obsDb.FilterFn) ([]model.Observation, error)
	fetchBeforeFn    func(string, time.Time) ([]model.Observation, error)
	deleteManyFn     func(context.Context, []model.Observation) error
)

type retentionDeps struct {
	datasets       fetchDatasetsFn
	countByDataset countByDatasetFn
	fetchByDataset fetchByDatasetFn
	fetchBefore    fetchBeforeFn
	deleteMany     deleteManyFn
}

// retention keeps each dataset under maxItemsStored rows and drops rows whose
// timestamp is older than maxStorageTime. Zero disables either rule.
type retention struct {
	opts retentionOptions
	deps retentionDeps
	now  func() time.Time
}

func newRetention(opts retentionOptions, deps retentionDeps) *retention {
	return &retention{opts: opts, deps: deps, now: time.Now}
}

// processOverSize deletes the oldest rows of dataset beyond maxItemsStored.
func (r *retention) processOverSize(ctx context.Context, dataset string) error {
	length, err := r.deps.countByDataset(dataset)
	if err != nil {
		return fmt.Errorf("unable count dataset %s: %w", dataset, err)
	}
	if length <= r.opts.maxItemsStored {
		return nil
	}
	list, err := r.deps.fetchByDataset(dataset, nil)
	if err != nil {
		return fmt.Errorf("unable find observations of dataset %s: %w", dataset, err)
	}
	if len(list) <= r.opts.maxItemsStored {
		return nil
	}
	// list is chronological, the head is the oldest
	if err := r.deps.deleteMany(ctx, list[:len(list)-r.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete oversize observations of dataset %s: %w", dataset, err)
	}
	return nil
}

func (r *retention) processOutdated(ctx context.Context, dataset string) error {
	list, err := r.deps.fetchBefore(dataset, r.now().Add(-r.opts.maxStorageTime))
	if err != nil {
		return fmt.Errorf("unable find outdated observations of dataset %s: %w", dataset, err)
	}
	if err := r.deps.deleteMany(ctx, list); err != nil {
		return fmt.Errorf("unable delete outdated observations of dataset %s: %w", dataset, err)
	}
	return nil
}

// rebuild runs both rules over every dataset once.
func (r *retention) rebuild(ctx context.Context) error {
	datasets, err := r.deps.datasets()
	if err != nil {
		return fmt.Errorf("unable fetch datasets: %w", err)
	}
	for _, dataset := range datasets {
		if r.opts.maxStorageTime > 0 {
			if err := r.processOutdated(ctx, dataset); err != nil {
				return err
			}
		}
		if r.opts.maxItemsStored > 0 {
			if err := r.processOverSize(ctx, dataset); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *retention) schedule(ctx context.Context) {
	logger := logging.FromContext(ctx)
	if r.opts.rebuildDBTime <= 0 || (r.opts.maxItemsStored <= 0 && r.opts.maxStorageTime <= 0) {
		return
	}
	ticker := time.NewTicker(r.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.rebuild(ctx); err != nil {
				logger.Errorf("unable apply retention: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
