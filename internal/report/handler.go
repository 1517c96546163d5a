package report

import (
	"fmt"
	"net/http"

	"github.com/go-sod/seqwin/internal/httputil"
	"github.com/go-sod/seqwin/internal/logging"
)

// NewHandler serves GET /report?dataset=<name>[&history=true].
func NewHandler(store *Store) http.Handler {
	return &handler{store: store}
}

type handler struct {
	store *Store
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}
	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset query parameter is required"}`)
		return
	}

	if r.URL.Query().Get("history") == "true" {
		list, err := h.store.History(ctx, dataset)
		if err != nil {
			httputil.RespInternalError(ctx, w, `{"error": "read reports: %v"}`, err)
			return
		}
		httputil.RespondJSON(ctx, w, http.StatusOK, list)
		return
	}

	rep, err := h.store.Latest(ctx, dataset)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "read report: %v"}`, err)
		return
	}
	if rep == nil {
		http.Error(w, fmt.Sprintf(`{"error": "no report for dataset %s"}`, dataset), http.StatusNotFound)
		return
	}
	httputil.RespondJSON(ctx, w, http.StatusOK, rep)
}
