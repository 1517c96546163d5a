// Package run serves POST /run: load a stored dataset, run the pipeline with
// a fresh predictor, persist and return the report.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/evaluate"
	"github.com/go-sod/seqwin/internal/httputil"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/notify"
	"github.com/go-sod/seqwin/internal/observation"
	"github.com/go-sod/seqwin/internal/pipeline"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/report"
)

const maxBodyBytes = 1024 * 1024

// Request is the body of POST /run. Empty fields fall back to the server
// configuration.
type Request struct {
	Dataset string           `json:"dataset"`
	Target  string           `json:"target"`
	Config  *pipeline.Config `json:"config"`
	Metrics []string         `json:"metrics"`
	Slice   string           `json:"slice"`
}

type Deps struct {
	Loader    observation.Loader
	Predictor predictor.ProvideFn
	Reports   *report.Store
	// Pipeline is used when a request carries no config.
	Pipeline pipeline.Config
	// Notifier is optional and receives every saved report.
	Notifier notify.Notifier
}

func NewHandler(cfg *Config, deps Deps) (http.Handler, error) {
	if deps.Loader == nil || deps.Predictor == nil || deps.Reports == nil {
		return nil, fmt.Errorf("run handler: loader, predictor and report store are required")
	}
	return &handler{cfg: cfg, deps: deps}, nil
}

type handler struct {
	cfg  *Config
	deps Deps
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
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
	d.DisallowUnknownFields()
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}
	if req.Dataset == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset is required"}`)
		return
	}

	rep, err := h.run(ctx, req)
	if err != nil {
		httputil.RespDataErr(ctx, w, err)
		return
	}
	if err := h.deps.Reports.Save(ctx, rep); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "save report: %v"}`, err)
		return
	}
	if h.deps.Notifier != nil {
		h.deps.Notifier.Notify(rep)
	}
	httputil.RespondJSON(ctx, w, http.StatusOK, rep)
}

func (h *handler) run(ctx context.Context, req Request) (*pipeline.Report, error) {
	cfg := h.deps.Pipeline
	if req.Config != nil {
		cfg = *req.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := evalOptions(req)
	if err != nil {
		return nil, err
	}

	target := req.Target
	if target == "" {
		target = h.cfg.Target
	}
	if target == "" {
		return nil, dataerr.InvalidConfig("target", target, "no target in request or configuration")
	}
	tbl, err := h.deps.Loader.LoadTable(ctx, req.Dataset, target)
	if err != nil {
		return nil, err
	}
	p, err := h.deps.Predictor()
	if err != nil {
		return nil, fmt.Errorf("create predictor: %w", err)
	}
	return pipeline.Run(ctx, req.Dataset, tbl, cfg, p, opts...)
}

func evalOptions(req Request) ([]evaluate.Option, error) {
	var opts []evaluate.Option
	if len(req.Metrics) > 0 {
		opts = append(opts, evaluate.WithMetrics(req.Metrics...))
	}
	if req.Slice != "" {
		s, err := evaluate.ParseSlice(req.Slice)
		if err != nil {
			return nil, err
		}
		opts = append(opts, evaluate.WithSlice(s))
	}
	return opts, nil
}
