// Package observation buffers collected rows into storage, applies
// retention and turns a stored dataset back into a table.
package observation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/logging"
	obsDb "github.com/go-sod/seqwin/internal/observation/database"
	"github.com/go-sod/seqwin/internal/observation/model"
	"github.com/go-sod/seqwin/internal/table"
)

var ErrShuttingDown = errors.New("observation manager is shutting down")

type ProvideFn func(chan<- error) (Manager, error)

type Manager interface {
	Collector
	Loader
	Run(context.Context) error
	Stop()
}

// Collector accepts rows from outside and hands them to the buffered writer.
type Collector interface {
	// Register fixes the field names of a dataset on first use and rejects a
	// later registration with a different set.
	Register(ctx context.Context, dataset string, fields []string) error
	Collect(ctx context.Context, in ...model.Observation) error
}

// Loader reads a stored dataset as a table.
type Loader interface {
	LoadTable(ctx context.Context, dataset, target string) (*table.Table, error)
	Datasets() ([]string, error)
}

type Option func(*manager)

func WithConfig(cfg *Config) Option {
	return func(m *manager) {
		m.cfg = *cfg
	}
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database is not configured")
	}
	m := &manager{
		obsDB:      obsDb.New(db),
		shutdownCh: shutdownCh,
		cfg:        Config{FlushSize: 100},
	}
	for _, f := range opts {
		f(m)
	}
	if m.cfg.FlushTime <= 0 {
		m.cfg.FlushTime = time.Second
	}
	m.writer = newWriter(writerOptions{flushSize: m.cfg.FlushSize, flushTime: m.cfg.FlushTime})
	m.retention = newRetention(
		retentionOptions{
			maxItemsStored: m.cfg.MaxItemsStored,
			maxStorageTime: m.cfg.MaxStorageTime,
			rebuildDBTime:  m.cfg.RebuildDBTime,
		},
		retentionDeps{
			datasets:       m.obsDB.Datasets,
			countByDataset: m.obsDB.CountByDataset,
			fetchByDataset: m.obsDB.FindByDataset,
			fetchBefore:    m.obsDB.FindBefore,
			deleteMany:     m.obsDB.DeleteMany,
		},
	)
	return m, nil
}

type manager struct {
	mtx sync.RWMutex

	cfg        Config
	obsDB      *obsDb.DB
	writer     *writer
	retention  *retention
	shutdownCh chan<- error

	closed bool
	cancel func()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	doneCh := make(chan error, 1)
	go m.writer.flusher(ctx, m.obsDB.AppendMany, doneCh)
	go m.retention.schedule(ctx)
	go func() {
		<-ctx.Done()
		m.mtx.Lock()
		m.closed = true
		m.mtx.Unlock()
		m.shutdownCh <- <-doneCh
	}()
	return nil
}

func (m *manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *manager) Register(ctx context.Context, dataset string, fields []string) error {
	current, err := m.obsDB.Fields(dataset)
	if err != nil {
		return fmt.Errorf("unable read fields of %s: %w", dataset, err)
	}
	if current == nil {
		return m.obsDB.SetFields(ctx, dataset, fields)
	}
	if !equalStrings(current, fields) {
		return dataerr.InvalidConfig("fields", fields, "dataset %s is registered with fields %v", dataset, current)
	}
	return nil
}

func (m *manager) Collect(ctx context.Context, in ...model.Observation) error {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if m.closed {
		return ErrShuttingDown
	}
	m.writer.append(ctx, m.obsDB.AppendMany, in...)
	return nil
}

func (m *manager) Datasets() ([]string, error) {
	return m.obsDB.Datasets()
}

// LoadTable flushes pending rows and builds a table from every stored row of
// dataset in chronological order.
func (m *manager) LoadTable(ctx context.Context, dataset, target string) (*table.Table, error) {
	logger := logging.FromContext(ctx)
	if err := m.writer.shutdown(m.obsDB.AppendMany); err != nil {
		return nil, err
	}
	fields, err := m.obsDB.Fields(dataset)
	if err != nil {
		return nil, fmt.Errorf("unable read fields of %s: %w", dataset, err)
	}
	if fields == nil {
		return nil, dataerr.InvalidConfig("dataset", dataset, "unknown dataset")
	}
	list, err := m.obsDB.FindByDataset(dataset, nil)
	if err != nil {
		return nil, err
	}
	rows := make([]table.Row, len(list))
	for i, o := range list {
		rows[i] = table.Row{Time: o.Time, Values: o.Values}
	}
	logger.Debugf("loaded %d rows of dataset %s", len(rows), dataset)
	return table.New(fields, target, rows)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
