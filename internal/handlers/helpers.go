package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/porticodesk/portico/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// WriteTaxonomyError maps a taxonomy error onto its HTTP status and a safe
// client message. Anything outside the taxonomy is an opaque 500; raw
// internal detail never reaches the response.
func WriteTaxonomyError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, models.ErrAuthRequired):
		return WriteError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, models.ErrReconnectRequired):
		return WriteError(w, http.StatusConflict, "reconnect required")
	case errors.Is(err, models.ErrProviderUnavailable):
		return WriteError(w, http.StatusBadGateway, "provider unavailable")
	case errors.Is(err, models.ErrInvalidSignature):
		return WriteError(w, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, models.ErrTenantNotFound):
		return WriteError(w, http.StatusNotFound, "tenant not found")
	case models.IsValidationError(err):
		return WriteError(w, http.StatusBadRequest, err.Error())
	default:
		return WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// DecodeJSON parses a request body into dst with unknown fields rejected.
func DecodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return models.NewValidationError("", "malformed request body")
	}
	return nil
}
