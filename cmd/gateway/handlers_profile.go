package main

import (
	"net/http"

	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/streak"
)

// profileResponse augments the stored profile with the derived completeness
// flag clients use to gate onboarding.
type profileResponse struct {
	*database.Profile
	Complete bool `json:"complete"`
}

func getProfileHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := repo.GetProfile(r.Context(), userID(r))
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{Profile: profile, Complete: profile.Complete()})
	}
}

func createProfileHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DisplayName  *string `json:"display_name"`
			SobrietyDate *string `json:"sobriety_date"`
			Timezone     string  `json:"timezone"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		profile := &database.Profile{
			ID:           userID(r),
			DisplayName:  req.DisplayName,
			SobrietyDate: req.SobrietyDate,
			Timezone:     req.Timezone,
		}
		if err := repo.CreateProfile(r.Context(), profile); err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, profileResponse{Profile: profile, Complete: profile.Complete()})
	}
}

func updateProfileHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update database.ProfileUpdate
		if !decodeBody(w, r, &update) {
			return
		}

		profile, err := repo.UpdateProfile(r.Context(), userID(r), update)
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{Profile: profile, Complete: profile.Complete()})
	}
}

// streakResponse carries the day counts plus a non-fatal error message when
// the slip-up lookup degraded.
type streakResponse struct {
	streak.Counts
	Error string `json:"error,omitempty"`
}

func streakHandler(repo *database.Repository, tracker *streak.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := repo.GetProfile(r.Context(), userID(r))
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		if profile.SobrietyDate == nil || *profile.SobrietyDate == "" {
			jsonError(w, "profile has no sobriety date", http.StatusConflict)
			return
		}

		result := tracker.Compute(r.Context(), profile)
		resp := streakResponse{Counts: result.Counts}
		if result.Err != nil {
			resp.Error = "slip-up lookup unavailable; count is best-effort"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
