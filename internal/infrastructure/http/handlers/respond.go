// Package handlers implements the JSON API surface.
package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps an error to the {"error": message} shape with the
// status its code dictates. Internal failures log the cause but never
// leak it to the client.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := apperrors.Wrap(err, "an unexpected error occurred")
	if appErr.StatusCode() >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	respondJSON(w, appErr.StatusCode(), map[string]string{"error": appErr.Message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewInvalidArgument("invalid JSON body")
	}
	return nil
}

// pathParam returns a decoded URL parameter so names with spaces survive
// the round trip.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
