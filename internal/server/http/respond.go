package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/errs"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg, Details: details})
}

// decode reads a single JSON object; unknown fields are ignored.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, msg, map[string]string{"body": err.Error()})
		return false
	}
	return true
}

// pathID parses a positive int64 route parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id", map[string]string{name: fmt.Sprintf("%q is not a positive integer", raw)})
		return 0, false
	}
	return id, true
}

// fail maps the error taxonomy onto status codes. Unknown errors become a
// bare 500 and are logged with the request id.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := errs.FieldsOf(err); ok {
		msg := "validation failed"
		var ve *errs.ValidationError
		if errors.As(err, &ve) && ve.Kind != nil {
			msg = ve.Kind.Error()
		}
		writeError(w, http.StatusBadRequest, msg, fields)
		return
	}
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, errs.ErrAlreadyCancelled),
		errors.Is(err, errs.ErrInvalidDateRange),
		errors.Is(err, errs.ErrReferenceNotFound),
		errors.Is(err, errs.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, errs.ErrEmailInUse):
		writeError(w, http.StatusConflict, err.Error(), map[string]string{"email": err.Error()})
	case errors.Is(err, errs.ErrVersionConflict):
		writeError(w, http.StatusConflict, "the record was modified concurrently, retry", nil)
	default:
		s.log.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFrom(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "internal", nil)
	}
}
