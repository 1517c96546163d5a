package run

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/notify"
	"github.com/go-sod/seqwin/internal/pipeline"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/predictor/mean"
	"github.com/go-sod/seqwin/internal/report"
	reportDb "github.com/go-sod/seqwin/internal/report/database"
	"github.com/go-sod/seqwin/internal/table"
	"github.com/go-sod/seqwin/internal/table/tabletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct{}

func (fakeLoader) LoadTable(_ context.Context, dataset, target string) (*table.Table, error) {
	if dataset != "sensor" {
		return nil, dataerr.InvalidConfig("dataset", dataset, "unknown dataset")
	}
	return table.New(tabletest.Fields(2), target, tabletest.Rows(500, 2))
}

func (fakeLoader) Datasets() ([]string, error) {
	return []string{"sensor"}, nil
}

type fakeNotifier struct {
	reports []*pipeline.Report
}

func (f *fakeNotifier) Notify(rep *pipeline.Report) {
	f.reports = append(f.reports, rep)
}

func newTestHandler(t *testing.T) (http.Handler, *report.Store) {
	return newNotifyingHandler(t, nil)
}

func newNotifyingHandler(t *testing.T, n notify.Notifier) (http.Handler, *report.Store) {
	t.Helper()
	ctx := context.Background()
	sDB, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(t.TempDir(), "r.db"), OpenTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sDB.Close(ctx) })

	store := report.NewStore(reportDb.New(sDB), nil)
	h, err := NewHandler(&Config{RequestTimeout: 10 * time.Second, Target: "y"}, Deps{
		Loader:    fakeLoader{},
		Predictor: func() (predictor.Predictor, error) { return mean.New(), nil },
		Reports:   store,
		Pipeline:  pipeline.Config{TrainFraction: .7, ValFraction: .1, StepsIn: 24, StepsOut: 12},
		Notifier:  n,
	})
	require.NoError(t, err)
	return h, store
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "positive_run", body: `{"dataset": "sensor", "metrics": ["mse", "r2"], "slice": "all"}`, code: http.StatusOK},
		{name: "custom_config", body: `{"dataset": "sensor", "config": {"trainFraction": 0.6, "valFraction": 0.2, "stepsIn": 6, "stepsOut": 3}}`, code: http.StatusOK},
		{name: "invalid_config", body: `{"dataset": "sensor", "config": {"trainFraction": 0.9, "valFraction": 0.2, "stepsIn": 6, "stepsOut": 3}}`, code: http.StatusBadRequest},
		{name: "unknown_metric", body: `{"dataset": "sensor", "metrics": ["mape"]}`, code: http.StatusBadRequest},
		{name: "unknown_dataset", body: `{"dataset": "other"}`, code: http.StatusBadRequest},
		{name: "empty_train", body: `{"dataset": "sensor", "config": {"trainFraction": 0.01, "valFraction": 0.01, "stepsIn": 24, "stepsOut": 12}}`, code: http.StatusUnprocessableEntity},
		{name: "unknown_field", body: `{"dataset": "sensor", "foo": 1}`, code: http.StatusBadRequest},
	}
	h, _ := newTestHandler(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(test.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != test.code {
				t.Errorf("calling ServeHTTP, got: %d, expected: %d, body: %s", rec.Code, test.code, rec.Body.String())
			}
		})
	}
}

func TestHandlerStoresReport(t *testing.T) {
	h, store := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"dataset": "sensor"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got pipeline.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sensor", got.Dataset)
	assert.Equal(t, [2]int{66, 12}, got.Test.Output)

	latest, err := store.Latest(context.Background(), "sensor")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, got.ID, latest.ID)
}

func TestHandlerNotifies(t *testing.T) {
	n := &fakeNotifier{}
	h, _ := newNotifyingHandler(t, n)
	for _, body := range []string{`{"dataset": "sensor"}`, `{"dataset": "other"}`} {
		req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Len(t, n.reports, 1)
	assert.Equal(t, "sensor", n.reports[0].Dataset)
}
