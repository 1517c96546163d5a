package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sod/seqwin/internal/collect"
	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/observation"
	"github.com/go-sod/seqwin/internal/observation/model"
	"github.com/go-sod/seqwin/internal/pipeline"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/predictor/mean"
	"github.com/go-sod/seqwin/internal/report"
	reportDb "github.com/go-sod/seqwin/internal/report/database"
	"github.com/go-sod/seqwin/internal/run"
	"github.com/go-sod/seqwin/internal/server"
	"github.com/go-sod/seqwin/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the HTTP handlers the way seqwin-srv does, on a
// temporary database.
func newTestServer(t *testing.T) *Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	db, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(t.TempDir(), "seqwin.db"), OpenTimeout: time.Second})
	require.NoError(t, err)

	shutdownCh := make(chan error, 1)
	manager, err := observation.New(db, shutdownCh, observation.WithConfig(&observation.Config{
		FlushSize:     1000,
		FlushTime:     time.Hour,
		RebuildDBTime: time.Hour,
	}))
	require.NoError(t, err)
	require.NoError(t, manager.Run(ctx))

	store := report.NewStore(reportDb.New(db), nil)
	collectHandler, err := collect.NewHandler(&collect.Config{RequestTimeout: 10 * time.Second, MaxDataItemsLen: 10000}, manager)
	require.NoError(t, err)
	runHandler, err := run.NewHandler(&run.Config{RequestTimeout: time.Minute, Target: synth.Target}, run.Deps{
		Loader:    manager,
		Predictor: func() (predictor.Predictor, error) { return mean.New(), nil },
		Reports:   store,
		Pipeline:  pipeline.Config{TrainFraction: .7, ValFraction: .1, StepsIn: 24, StepsOut: 12},
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/collect", collectHandler)
	mux.Handle("/run", runHandler)
	mux.Handle("/report", report.NewHandler(store))
	mux.Handle("/health", server.HandleHealth(ctx))
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		select {
		case <-shutdownCh:
		case <-time.After(5 * time.Second):
			t.Error("observation manager did not stop")
		}
		_ = db.Close(context.Background())
	})

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewClient(u.Host)
}

func synthBatch(n int) model.Batch {
	rows := synth.Rows(n, synth.WithSeed(7))
	b := model.Batch{Dataset: "weather", Fields: synth.Fields, Data: make([]model.Row, 0, len(rows))}
	for _, r := range rows {
		b.Data = append(b.Data, model.Row{Time: r.Time, Values: r.Values})
	}
	return b
}

func TestCollectRunReport(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	n, err := c.Collect(ctx, synthBatch(500))
	require.NoError(t, err)
	assert.Equal(t, 500, n)

	rep, err := c.Run(ctx, run.Request{Dataset: "weather", Metrics: []string{"mse", "mae"}})
	require.NoError(t, err)
	assert.Equal(t, 500, rep.Rows)
	assert.Equal(t, [3]int{350, 50, 100}, rep.Partitions)
	assert.Equal(t, [3]int{316, 24, 5}, rep.Train.Input)
	assert.Equal(t, [2]int{16, 12}, rep.Val.Output)
	assert.Equal(t, [2]int{66, 12}, rep.Test.Output)
	assert.Equal(t, "mean", rep.Predictor)
	assert.Contains(t, rep.Evaluation.Metrics, "mse")

	latest, err := c.Report(ctx, "weather")
	require.NoError(t, err)
	assert.Equal(t, rep.ID, latest.ID)

	_, err = c.Run(ctx, run.Request{Dataset: "weather", Slice: "all"})
	require.NoError(t, err)
	history, err := c.History(ctx, "weather")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestStatusErrors(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		code int
	}{
		{
			name: "missing_report",
			call: func() error {
				_, err := c.Report(ctx, "nothing")
				return err
			},
			code: http.StatusNotFound,
		},
		{
			name: "bad_slice",
			call: func() error {
				_, err := c.Run(ctx, run.Request{Dataset: "weather", Slice: "middle"})
				return err
			},
			code: http.StatusBadRequest,
		},
		{
			name: "missing_dataset",
			call: func() error {
				_, err := c.Collect(ctx, model.Batch{})
				return err
			},
			code: http.StatusBadRequest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.call()
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("calling client, err got: %v, expected: *StatusError", err)
			}
			if statusErr.Code != test.code {
				t.Errorf("status code, got: %d, expected: %d", statusErr.Code, test.code)
			}
		})
	}
}
