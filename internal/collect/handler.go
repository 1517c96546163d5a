// Package collect serves POST /collect, the ingestion endpoint for rows of a
// named dataset.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-sod/seqwin/internal/httputil"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/metrics"
	"github.com/go-sod/seqwin/internal/observation"
	"github.com/go-sod/seqwin/internal/observation/model"
)

const maxBodyBytes = 64 * 1024 * 1024

func NewHandler(cfg *Config, collector observation.Collector) (http.Handler, error) {
	if collector == nil {
		return nil, fmt.Errorf("collect handler: collector is required")
	}
	s := &handler{
		collector: collector,
		cfg:       cfg,
	}
	return s, nil
}

type handler struct {
	collector observation.Collector
	cfg       *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req model.Batch
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if !httputil.IsJSON(r) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if req.Dataset == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset is required"}`)
		return
	}
	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}
	if len(req.Fields) > 0 {
		if err := h.collector.Register(ctx, req.Dataset, req.Fields); err != nil {
			httputil.RespDataErr(ctx, w, err)
			return
		}
	}

	list, err := req.Observations()
	if err != nil {
		httputil.RespDataErr(ctx, w, err)
		return
	}
	if err := h.collector.Collect(ctx, list...); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "collect: %v"}`, err)
		return
	}
	metrics.Record(ctx, metrics.KeyDataset, req.Dataset, metrics.CollectedRows.M(int64(len(list))))
	logger.Infof("collected %d rows for dataset %s", len(list), req.Dataset)

	httputil.RespondJSON(ctx, w, http.StatusOK, map[string]interface{}{"status": "ok", "collected": len(list)})
}
