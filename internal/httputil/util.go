package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/logging"
)

func DecodeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		syntaxErr      *json.SyntaxError
		unmarshalError *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr):
		RespBadRequest(ctx, w, `{"error": "malformed json at position %v"}`, syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		RespBadRequest(ctx, w, `{"error": "malformed json"}`)
	case errors.As(err, &unmarshalError):
		RespBadRequest(ctx, w, `{"error": "invalid value %v at position %v"}`, unmarshalError.Field, unmarshalError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		RespBadRequest(ctx, w, `{"error": "unknown field %s"}`, fieldName)
	case errors.Is(err, io.EOF):
		RespBadRequest(ctx, w, `{"error": "body must not be empty"}`)
	case err.Error() == "http: request body too large":
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	default:
		RespInternalError(ctx, w, `{"error": "failed to decode json %v"}`, err)
	}
}

func RespBadRequest(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	http.Error(w, msg, http.StatusBadRequest)
}

func RespInternalError(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	logging.FromContext(ctx).Errorf(format, args...)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

// RespondJSON writes v with the given status code.
func RespondJSON(ctx context.Context, w http.ResponseWriter, code int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

// RespDataErr maps the dataerr taxonomy onto HTTP statuses.
func RespDataErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dataerr.ErrInvalidConfiguration),
		errors.Is(err, dataerr.ErrMalformedInput):
		RespBadRequest(ctx, w, `{"error": %q}`, err.Error())
	case errors.Is(err, dataerr.ErrEmptySampleSet),
		errors.Is(err, dataerr.ErrShapeMismatch):
		logging.FromContext(ctx).Debug(err.Error())
		http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusUnprocessableEntity)
	default:
		RespInternalError(ctx, w, `{"error": %q}`, err.Error())
	}
}

// IsJSON reports whether the request declares a JSON body.
func IsJSON(r *http.Request) bool {
	t := r.Header.Get("content-type")
	return len(t) >= 16 && t[:16] == "application/json"
}
