package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/logging"
)

// defaultInviteTTL bounds how long a pairing code stays redeemable.
const defaultInviteTTL = 72 * time.Hour

func listInvitesHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invites, err := repo.ListInvitesByCreator(r.Context(), userID(r))
		if err != nil {
			respondRepositoryError(w, err)
			return
		}

		// Report time-based expiry without waiting for the sweeper.
		now := time.Now()
		out := make([]map[string]interface{}, 0, len(invites))
		for i := range invites {
			invite := &invites[i]
			out = append(out, map[string]interface{}{
				"id":         invite.ID,
				"code":       invite.Code,
				"status":     invite.EffectiveStatus(now),
				"expires_at": invite.ExpiresAt,
				"used_by":    invite.UsedBy,
				"used_at":    invite.UsedAt,
				"created_at": invite.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"invites": out})
	}
}

func createInviteHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invite, err := repo.CreateInviteCode(r.Context(), userID(r), defaultInviteTTL)
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, invite)
	}
}

// redeemInviteHandler consumes a pairing code and establishes the
// sponsor/sponsee relationship: the invite's creator sponsors the redeemer.
// A failed pairing insert reactivates the invite so the single-use code is
// not burned without a relationship.
func redeemInviteHandler(repo *database.Repository, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		invite, err := repo.RedeemInvite(r.Context(), req.Code, userID(r))
		if err != nil {
			respondRepositoryError(w, err)
			return
		}

		relationship, err := repo.CreateRelationship(r.Context(), invite.CreatorID, userID(r))
		if err != nil {
			if restoreErr := repo.ReactivateInvite(r.Context(), invite.ID); restoreErr != nil {
				logger.WithContext(r.Context()).WithError(restoreErr).Error("failed to reactivate invite after pairing failure")
			}
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"invite":       invite,
			"relationship": relationship,
		})
	}
}

func revokeInviteHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.RevokeInvite(r.Context(), mux.Vars(r)["id"], userID(r)); err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": database.InviteStatusRevoked})
	}
}
