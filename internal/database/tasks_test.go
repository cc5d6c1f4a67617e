package database

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

const (
	testSponsorID = "b4cc290f-9c0a-4999-aa23-bdf5f7654113"
	testTaskID    = "abcdefab-1234-5678-9abc-def012345678"
)

func TestTasks_Create_DefaultsToPending(t *testing.T) {
	client := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got Task
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode task insert: %v", err)
		}
		if got.Status != TaskStatusPending {
			t.Fatalf("inserted status = %q, want pending", got.Status)
		}
		got.ID = testTaskID
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Task{got})
	}))
	repo := NewRepository(client)

	task := &Task{SponsorID: testSponsorID, SponseeID: testUserID, Title: "Call your sponsor"}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != testTaskID {
		t.Fatalf("returned row not applied, id = %q", task.ID)
	}
}

func TestTasks_Create_Validates(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the backend")
	})))

	tests := []struct {
		name string
		task *Task
	}{
		{"nil task", nil},
		{"missing sponsor", &Task{SponseeID: testUserID, Title: "x"}},
		{"missing sponsee", &Task{SponsorID: testSponsorID, Title: "x"}},
		{"missing title", &Task{SponsorID: testSponsorID, SponseeID: testUserID}},
		{"bad status", &Task{SponsorID: testSponsorID, SponseeID: testUserID, Title: "x", Status: "paused"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.CreateTask(context.Background(), tt.task)
			if err == nil || !IsInvalidInput(err) {
				t.Fatalf("expected invalid input error, got %v", err)
			}
		})
	}
}

func TestTasks_Get_NotFound(t *testing.T) {
	client := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	repo := NewRepository(client)

	_, err := repo.GetTask(context.Background(), testTaskID)
	if err == nil || !IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestTasks_UpdateStatus_StampsCompletion(t *testing.T) {
	client := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" {
			t.Fatalf("method = %s, want PATCH", r.Method)
		}
		var update map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			t.Fatalf("decode update: %v", err)
		}
		if update["status"] != TaskStatusCompleted {
			t.Fatalf("status = %v, want completed", update["status"])
		}
		if update["completed_at"] == nil {
			t.Fatal("completed_at not stamped on completion")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Task{{ID: testTaskID, Status: TaskStatusCompleted}})
	}))
	repo := NewRepository(client)

	task, err := repo.UpdateTaskStatus(context.Background(), testTaskID, TaskStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if task.Status != TaskStatusCompleted {
		t.Fatalf("status = %q, want completed", task.Status)
	}
}

func TestTasks_UpdateStatus_ClearsCompletionOnReopen(t *testing.T) {
	client := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			t.Fatalf("decode update: %v", err)
		}
		if v, present := update["completed_at"]; !present || v != nil {
			t.Fatalf("completed_at = %v, want explicit null", v)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Task{{ID: testTaskID, Status: TaskStatusPending}})
	}))
	repo := NewRepository(client)

	if _, err := repo.UpdateTaskStatus(context.Background(), testTaskID, TaskStatusPending); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
}

func TestTasks_UpdateStatus_RejectsUnknownStatus(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the backend")
	})))

	_, err := repo.UpdateTaskStatus(context.Background(), testTaskID, "archived")
	if err == nil || !IsInvalidInput(err) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestTasks_ListCreatedSince_FiltersAndOrders(t *testing.T) {
	since := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	client := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("created_at"); got != "gt.2026-08-01T12:00:00Z" {
			t.Fatalf("created_at filter = %q", got)
		}
		if got := r.URL.Query().Get("order"); got != "created_at.asc" {
			t.Fatalf("order = %q, want created_at.asc", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Task{{ID: testTaskID, Title: "Read chapter five"}})
	}))
	repo := NewRepository(client)

	tasks, err := repo.ListTasksCreatedSince(context.Background(), since)
	if err != nil {
		t.Fatalf("ListTasksCreatedSince: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != testTaskID {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}
