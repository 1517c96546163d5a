package observation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/observation/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfg Config) (*manager, chan error) {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(t.TempDir(), "obs.db"), OpenTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(ctx) })

	shutdownCh := make(chan error, 1)
	m, err := New(db, shutdownCh, WithConfig(&cfg))
	require.NoError(t, err)
	return m, shutdownCh
}

func TestManagerCollectAndLoad(t *testing.T) {
	ctx := context.Background()
	m, shutdownCh := newTestManager(t, Config{FlushSize: 1000, FlushTime: time.Hour})
	require.NoError(t, m.Run(ctx))

	require.NoError(t, m.Register(ctx, "sensor", []string{"temp", "y"}))
	require.NoError(t, m.Register(ctx, "sensor", []string{"temp", "y"}))
	err := m.Register(ctx, "sensor", []string{"y"})
	assert.True(t, errors.Is(err, dataerr.ErrInvalidConfiguration))

	for i := 4; i >= 0; i-- {
		o := model.NewObservation("sensor", epoch.Add(time.Duration(i)*time.Hour), []float64{float64(i * 10), float64(i)})
		require.NoError(t, m.Collect(ctx, o))
	}

	tbl, err := m.LoadTable(ctx, "sensor", "y")
	require.NoError(t, err)
	require.Equal(t, 5, tbl.RowCount())
	for i := 0; i < 5; i++ {
		assert.Equal(t, float64(i), tbl.TargetAt(i))
		assert.Equal(t, epoch.Add(time.Duration(i)*time.Hour), tbl.TimeAt(i))
	}

	datasets, err := m.Datasets()
	require.NoError(t, err)
	assert.Equal(t, []string{"sensor"}, datasets)

	_, err = m.LoadTable(ctx, "unknown", "y")
	assert.True(t, errors.Is(err, dataerr.ErrInvalidConfiguration))

	m.Stop()
	require.NoError(t, <-shutdownCh)
	assert.True(t, errors.Is(m.Collect(ctx, model.NewObservation("sensor", epoch, []float64{0, 0})), ErrShuttingDown))
}

func TestManagerStopFlushesBuffer(t *testing.T) {
	ctx := context.Background()
	m, shutdownCh := newTestManager(t, Config{FlushSize: 1000, FlushTime: time.Hour})
	require.NoError(t, m.Run(ctx))
	require.NoError(t, m.Collect(ctx, batchOf(3)...))

	m.Stop()
	require.NoError(t, <-shutdownCh)

	n, err := m.obsDB.CountByDataset("test-data")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRetentionRebuild(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{MaxItemsStored: 2})
	require.NoError(t, m.obsDB.AppendMany(ctx, batchOf(5)))

	require.NoError(t, m.retention.rebuild(ctx))
	list, err := m.obsDB.FindByDataset("test-data", nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, epoch.Add(3*time.Second), list[0].Time)
}
