package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stillwaterhq/stillwater/internal/authflow"
	"github.com/stillwaterhq/stillwater/internal/securestore"
)

// authCallbackHandler hands an OAuth deep-link URL to the bootstrapper. The
// endpoint never fails on bad callbacks: an unusable URL just reports
// handled=false, matching the bootstrapper's non-propagating contract.
func authCallbackHandler(bootstrapper *authflow.Bootstrapper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.URL == "" {
			jsonError(w, "url is required", http.StatusBadRequest)
			return
		}

		result := bootstrapper.HandleCallbackURL(r.Context(), req.URL)
		if result == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"handled": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"handled":     true,
			"user":        result.User,
			"session":     result.Session,
			"new_profile": result.NewProfile,
		})
	}
}

// vaultKey scopes a stored key to the authenticated user.
func vaultKey(r *http.Request) string {
	return userID(r) + "/" + mux.Vars(r)["key"]
}

func getVaultHandler(vault *securestore.Migrating) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := vault.Get(r.Context(), vaultKey(r))
		if err != nil {
			if securestore.IsNotFound(err) {
				jsonError(w, "not found", http.StatusNotFound)
				return
			}
			jsonError(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"value": value})
	}
}

func putVaultHandler(vault *securestore.Migrating) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Value string `json:"value"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := vault.Set(r.Context(), vaultKey(r), req.Value); err != nil {
			jsonError(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteVaultHandler(vault *securestore.Migrating) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Best-effort across both stores; never fails.
		vault.Delete(r.Context(), vaultKey(r))
		w.WriteHeader(http.StatusNoContent)
	}
}
