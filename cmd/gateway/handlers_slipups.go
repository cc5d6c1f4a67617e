package main

import (
	"net/http"

	"github.com/stillwaterhq/stillwater/internal/database"
)

func listSlipUpsHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slipUps, err := repo.ListSlipUps(r.Context(), userID(r))
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"slip_ups": slipUps})
	}
}

func createSlipUpHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SlipUpDate          string  `json:"slip_up_date"`
			RecoveryRestartDate string  `json:"recovery_restart_date"`
			Notes               *string `json:"notes"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		slipUp := &database.SlipUp{
			UserID:              userID(r),
			SlipUpDate:          req.SlipUpDate,
			RecoveryRestartDate: req.RecoveryRestartDate,
			Notes:               req.Notes,
		}
		if err := repo.CreateSlipUp(r.Context(), slipUp); err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, slipUp)
	}
}
