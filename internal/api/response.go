package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nvaprinting/stockroom/internal/archive"
	"github.com/nvaprinting/stockroom/internal/checkout"
	"github.com/nvaprinting/stockroom/internal/ledger"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryTime parses an RFC 3339 timestamp or a bare date. A bare "to" date
// covers the whole day.
func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if key == "to" {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// domainError maps coordinator errors to HTTP statuses.
func domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, archive.ErrNotFound),
		errors.Is(err, checkout.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDuplicate), errors.Is(err, ledger.ErrConflict),
		errors.Is(err, archive.ErrAlreadyRestored):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalid),
		errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrInvalidLine),
		errors.Is(err, checkout.ErrUnknownMethod), errors.Is(err, checkout.ErrReferenceRequired):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrInsufficientPayment):
		jsonError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, checkout.ErrLineFailed):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
