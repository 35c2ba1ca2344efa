package web

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/services/assetview"
	"github.com/vadiminshakov/bazar/internal/services/profileview"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, assetview.ErrSessionNotFound), errors.Is(err, clients.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, assetview.ErrInvalidAssetID),
		errors.Is(err, assetview.ErrInvalidListing),
		errors.Is(err, assetview.ErrUnknownTab),
		errors.Is(err, profileview.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, assetview.ErrViewerRequired):
		return http.StatusUnauthorized
	case errors.Is(err, assetview.ErrNotOrderOwner), errors.Is(err, profileview.ErrNotViewerProfile):
		return http.StatusForbidden
	case errors.Is(err, assetview.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}
