package main

import (
	"net/http"

	"github.com/stillwaterhq/stillwater/internal/database"
)

func listStepsHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		steps, err := repo.ListSteps(r.Context())
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"steps": steps})
	}
}

func listPrayersHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prayers, err := repo.ListPrayers(r.Context())
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"prayers": prayers})
	}
}

func listStepProgressHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		progress, err := repo.ListStepProgress(r.Context(), userID(r))
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"progress": progress})
	}
}

func upsertStepProgressHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StepNumber int     `json:"step_number"`
			Notes      *string `json:"notes"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		progress := &database.StepProgress{
			UserID:     userID(r),
			StepNumber: req.StepNumber,
			Notes:      req.Notes,
		}
		if err := repo.UpsertStepProgress(r.Context(), progress); err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

func listMeetingsHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meetings, err := repo.ListMeetings(r.Context(), userID(r))
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"meetings": meetings})
	}
}

func createMeetingHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name      string  `json:"name"`
			MeetingOn string  `json:"meeting_on"`
			Notes     *string `json:"notes"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		meeting := &database.Meeting{
			UserID:    userID(r),
			Name:      req.Name,
			MeetingOn: req.MeetingOn,
			Notes:     req.Notes,
		}
		if err := repo.CreateMeeting(r.Context(), meeting); err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, meeting)
	}
}
