package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// =============================================================================
// Task Operations
// =============================================================================

// CreateTask creates a sponsor-assigned task.
func (r *Repository) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("%w: task cannot be nil", ErrInvalidInput)
	}
	if err := ValidateUserID(task.SponsorID); err != nil {
		return err
	}
	if err := ValidateUserID(task.SponseeID); err != nil {
		return err
	}
	if task.Title == "" {
		return fmt.Errorf("%w: task title cannot be empty", ErrInvalidInput)
	}
	if task.Status == "" {
		task.Status = TaskStatusPending
	}
	if !ValidTaskStatus(task.Status) {
		return fmt.Errorf("%w: unknown task status %q", ErrInvalidInput, task.Status)
	}

	data, err := r.client.request(ctx, "POST", "tasks", task, "")
	if err != nil {
		return fmt.Errorf("%w: create task: %v", ErrDatabaseError, err)
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("%w: unmarshal tasks: %v", ErrDatabaseError, err)
	}
	if len(tasks) > 0 {
		*task = tasks[0]
	}
	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, taskID string) (*Task, error) {
	if err := ValidateID(taskID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("id=eq.%s&limit=1", taskID)
	data, err := r.client.request(ctx, "GET", "tasks", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: get task: %v", ErrDatabaseError, err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: unmarshal tasks: %v", ErrDatabaseError, err)
	}
	if len(tasks) == 0 {
		return nil, NewNotFoundError("task", taskID)
	}
	return &tasks[0], nil
}

// ListTasksForSponsee retrieves tasks assigned to a sponsee, newest first.
func (r *Repository) ListTasksForSponsee(ctx context.Context, sponseeID string) ([]Task, error) {
	if err := ValidateUserID(sponseeID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("sponsee_id=eq.%s&order=created_at.desc", sponseeID)
	data, err := r.client.request(ctx, "GET", "tasks", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %v", ErrDatabaseError, err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: unmarshal tasks: %v", ErrDatabaseError, err)
	}
	return tasks, nil
}

// ListTasksAssignedBy retrieves tasks created by a sponsor, newest first.
func (r *Repository) ListTasksAssignedBy(ctx context.Context, sponsorID string) ([]Task, error) {
	if err := ValidateUserID(sponsorID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("sponsor_id=eq.%s&order=created_at.desc", sponsorID)
	data, err := r.client.request(ctx, "GET", "tasks", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %v", ErrDatabaseError, err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: unmarshal tasks: %v", ErrDatabaseError, err)
	}
	return tasks, nil
}

// ListTasksCreatedSince retrieves tasks created after the given instant,
// oldest first. The change poller uses this to detect new assignments.
func (r *Repository) ListTasksCreatedSince(ctx context.Context, since time.Time) ([]Task, error) {
	query := fmt.Sprintf("created_at=gt.%s&order=created_at.asc", url.QueryEscape(since.UTC().Format(time.RFC3339)))
	data, err := r.client.request(ctx, "GET", "tasks", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list recent tasks: %v", ErrDatabaseError, err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: unmarshal tasks: %v", ErrDatabaseError, err)
	}
	return tasks, nil
}

// UpdateTaskStatus transitions a task to the given status. Completing a task
// stamps completed_at.
func (r *Repository) UpdateTaskStatus(ctx context.Context, taskID, status string) (*Task, error) {
	if err := ValidateID(taskID); err != nil {
		return nil, err
	}
	if !ValidTaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown task status %q", ErrInvalidInput, status)
	}

	update := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if status == TaskStatusCompleted {
		update["completed_at"] = time.Now().UTC()
	} else {
		update["completed_at"] = nil
	}

	query := fmt.Sprintf("id=eq.%s", taskID)
	data, err := r.client.request(ctx, "PATCH", "tasks", update, query)
	if err != nil {
		return nil, fmt.Errorf("%w: update task status: %v", ErrDatabaseError, err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: unmarshal tasks: %v", ErrDatabaseError, err)
	}
	if len(tasks) == 0 {
		return nil, NewNotFoundError("task", taskID)
	}
	return &tasks[0], nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, taskID string) error {
	if err := ValidateID(taskID); err != nil {
		return err
	}

	query := fmt.Sprintf("id=eq.%s", taskID)
	if _, err := r.client.request(ctx, "DELETE", "tasks", nil, query); err != nil {
		return fmt.Errorf("%w: delete task: %v", ErrDatabaseError, err)
	}
	return nil
}
