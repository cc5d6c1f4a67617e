package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stillwaterhq/stillwater/internal/database"
)

// listTasksHandler returns the caller's tasks: assignments received by
// default, or assignments given with ?role=sponsor.
func listTasksHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			tasks []database.Task
			err   error
		)
		if r.URL.Query().Get("role") == "sponsor" {
			tasks, err = repo.ListTasksAssignedBy(r.Context(), userID(r))
		} else {
			tasks, err = repo.ListTasksForSponsee(r.Context(), userID(r))
		}
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
	}
}

func createTaskHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SponseeID string  `json:"sponsee_id"`
			Title     string  `json:"title"`
			Notes     *string `json:"notes"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		task := &database.Task{
			SponsorID: userID(r),
			SponseeID: req.SponseeID,
			Title:     req.Title,
			Notes:     req.Notes,
			Status:    database.TaskStatusPending,
		}
		if err := repo.CreateTask(r.Context(), task); err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	}
}

func getTaskHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := repo.GetTask(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		if !taskParty(task, userID(r)) {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func updateTaskStatusHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		taskID := mux.Vars(r)["id"]
		task, err := repo.GetTask(r.Context(), taskID)
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		if !taskParty(task, userID(r)) {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}

		updated, err := repo.UpdateTaskStatus(r.Context(), taskID, req.Status)
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// deleteTaskHandler removes a task. Only the assigning sponsor may delete.
func deleteTaskHandler(repo *database.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := mux.Vars(r)["id"]
		task, err := repo.GetTask(r.Context(), taskID)
		if err != nil {
			respondRepositoryError(w, err)
			return
		}
		if task.SponsorID != userID(r) {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}

		if err := repo.DeleteTask(r.Context(), taskID); err != nil {
			respondRepositoryError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// taskParty reports whether uid is either side of the task.
func taskParty(task *database.Task, uid string) bool {
	return task.SponsorID == uid || task.SponseeID == uid
}
