// Package httpapi is the chi-based HTTP transport. Handlers decode and
// validate DTOs, call the services, and map domain error kinds to status
// codes from a single table.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/dto"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindInternal:         http.StatusInternalServerError,
	apperr.KindNotFound:         http.StatusNotFound,
	apperr.KindResourceExists:   http.StatusConflict,
	apperr.KindUnauthorized:     http.StatusUnauthorized,
	apperr.KindUserNotActive:    http.StatusForbidden,
	apperr.KindInvalidSession:   http.StatusUnauthorized,
	apperr.KindBadRequest:       http.StatusBadRequest,
	apperr.KindInvalidInput:     http.StatusUnprocessableEntity,
	apperr.KindPermissionDenied: http.StatusForbidden,
	apperr.KindConflict:         http.StatusConflict,
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if kind == apperr.KindInternal {
		log.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, dto.ErrorResponse{
		Error:   kind.String(),
		Message: apperr.MessageOf(err),
	})
}

// maxBodyBytes caps JSON request bodies. Image uploads use their own limit.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.New(apperr.KindBadRequest, "request body too large")
		}
		return apperr.New(apperr.KindBadRequest, "malformed JSON body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return apperr.New(apperr.KindBadRequest, "unexpected trailing data")
	}
	return nil
}
