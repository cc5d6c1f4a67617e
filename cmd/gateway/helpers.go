package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/httputil"
	"github.com/stillwaterhq/stillwater/internal/middleware"
)

const maxRequestBodyBytes = 64 * 1024

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	httputil.WriteJSON(w, status, payload)
}

// decodeBody decodes a JSON request body into dst, rejecting oversized
// payloads. It writes the error response itself and reports success.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	data, truncated, err := httputil.ReadAllWithLimit(r.Body, maxRequestBodyBytes)
	if err != nil {
		jsonError(w, "failed to read request body", http.StatusBadRequest)
		return false
	}
	if truncated {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// userID returns the authenticated user, guaranteed non-empty behind the
// auth middleware.
func userID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}

// respondRepositoryError maps repository sentinel errors to HTTP statuses.
func respondRepositoryError(w http.ResponseWriter, err error) {
	switch {
	case database.IsNotFound(err):
		jsonError(w, "not found", http.StatusNotFound)
	case database.IsInvalidInput(err):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case database.IsConflict(err):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"service":   "gateway",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
