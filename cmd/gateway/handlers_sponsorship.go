package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stillwaterhq/stillwater/internal/database"
)

// relationshipView is a relationship seen from the caller's side, with the
// derived contact-reveal state.
type relationshipView struct {
	*database.Relationship
	RevealState string `json:"reveal_state"`
}

func listRelationshipsHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := userID(r)
		relationships, err := repo.ListRelationshipsForUser(r.Context(), uid)
		if err != nil {
			respondRepositoryError(w, err)
			return
		}

		views := make([]relationshipView, 0, len(relationships))
		for i := range relationships {
			rel := &relationships[i]
			views = append(views, relationshipView{Relationship: rel, RevealState: rel.RevealState(uid)})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"relationships": views})
	}
}

func setConsentHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Consent bool `json:"consent"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		uid := userID(r)
		rel, err := repo.SetRevealConsent(r.Context(), mux.Vars(r)["id"], uid, req.Consent)
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, relationshipView{Relationship: rel, RevealState: rel.RevealState(uid)})
	}
}

func endRelationshipHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.EndRelationship(r.Context(), mux.Vars(r)["id"], userID(r)); err != nil {
			respondRepositoryError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
