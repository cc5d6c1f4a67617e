package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// Reference Content
// =============================================================================

// ListSteps retrieves the static program steps in order.
func (r *Repository) ListSteps(ctx context.Context) ([]StepContent, error) {
	data, err := r.client.request(ctx, "GET", "steps_content", nil, "order=step_number.asc")
	if err != nil {
		return nil, fmt.Errorf("%w: list steps: %v", ErrDatabaseError, err)
	}

	var steps []StepContent
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("%w: unmarshal steps_content: %v", ErrDatabaseError, err)
	}
	return steps, nil
}

// ListPrayers retrieves the static prayer content.
func (r *Repository) ListPrayers(ctx context.Context) ([]Prayer, error) {
	data, err := r.client.request(ctx, "GET", "prayers", nil, "order=title.asc")
	if err != nil {
		return nil, fmt.Errorf("%w: list prayers: %v", ErrDatabaseError, err)
	}

	var prayers []Prayer
	if err := json.Unmarshal(data, &prayers); err != nil {
		return nil, fmt.Errorf("%w: unmarshal prayers: %v", ErrDatabaseError, err)
	}
	return prayers, nil
}

// SeedSteps upserts the static step content, merging on step_number so a
// re-run updates titles and bodies in place.
func (r *Repository) SeedSteps(ctx context.Context, steps []StepContent) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: no steps to seed", ErrInvalidInput)
	}
	for i := range steps {
		if steps[i].StepNumber < 1 || steps[i].StepNumber > 12 {
			return fmt.Errorf("%w: step number %d out of range", ErrInvalidInput, steps[i].StepNumber)
		}
		if steps[i].Title == "" {
			return fmt.Errorf("%w: step %d has no title", ErrInvalidInput, steps[i].StepNumber)
		}
	}

	if _, err := r.client.upsert(ctx, "steps_content", steps, "on_conflict=step_number"); err != nil {
		return fmt.Errorf("%w: seed steps: %v", ErrDatabaseError, err)
	}
	return nil
}

// SeedPrayers upserts the static prayer content, merging on title.
func (r *Repository) SeedPrayers(ctx context.Context, prayers []Prayer) error {
	if len(prayers) == 0 {
		return fmt.Errorf("%w: no prayers to seed", ErrInvalidInput)
	}
	for i := range prayers {
		if prayers[i].Title == "" || prayers[i].Body == "" {
			return fmt.Errorf("%w: prayer %d missing title or body", ErrInvalidInput, i)
		}
	}

	if _, err := r.client.upsert(ctx, "prayers", prayers, "on_conflict=title"); err != nil {
		return fmt.Errorf("%w: seed prayers: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// Step Progress
// =============================================================================

// ListStepProgress retrieves a user's step completion records.
func (r *Repository) ListStepProgress(ctx context.Context, userID string) ([]StepProgress, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("user_id=eq.%s&order=step_number.asc", userID)
	data, err := r.client.request(ctx, "GET", "user_step_progress", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list step progress: %v", ErrDatabaseError, err)
	}

	var progress []StepProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("%w: unmarshal user_step_progress: %v", ErrDatabaseError, err)
	}
	return progress, nil
}

// UpsertStepProgress records completion of a step for a user, merging on the
// (user_id, step_number) uniqueness constraint.
func (r *Repository) UpsertStepProgress(ctx context.Context, progress *StepProgress) error {
	if progress == nil {
		return fmt.Errorf("%w: step progress cannot be nil", ErrInvalidInput)
	}
	if err := ValidateUserID(progress.UserID); err != nil {
		return err
	}
	if progress.StepNumber < 1 || progress.StepNumber > 12 {
		return fmt.Errorf("%w: step number must be 1-12", ErrInvalidInput)
	}
	if progress.CompletedAt == nil {
		now := time.Now().UTC()
		progress.CompletedAt = &now
	}

	query := "on_conflict=user_id,step_number"
	data, err := r.client.upsert(ctx, "user_step_progress", progress, query)
	if err != nil {
		return fmt.Errorf("%w: upsert step progress: %v", ErrDatabaseError, err)
	}
	var rows []StepProgress
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: unmarshal user_step_progress: %v", ErrDatabaseError, err)
	}
	if len(rows) > 0 {
		*progress = rows[0]
	}
	return nil
}

// =============================================================================
// Meetings
// =============================================================================

// ListMeetings retrieves a user's meeting attendance log, newest first.
func (r *Repository) ListMeetings(ctx context.Context, userID string) ([]Meeting, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("user_id=eq.%s&order=meeting_on.desc", userID)
	data, err := r.client.request(ctx, "GET", "user_meetings", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list meetings: %v", ErrDatabaseError, err)
	}

	var meetings []Meeting
	if err := json.Unmarshal(data, &meetings); err != nil {
		return nil, fmt.Errorf("%w: unmarshal user_meetings: %v", ErrDatabaseError, err)
	}
	return meetings, nil
}

// CreateMeeting records meeting attendance.
func (r *Repository) CreateMeeting(ctx context.Context, meeting *Meeting) error {
	if meeting == nil {
		return fmt.Errorf("%w: meeting cannot be nil", ErrInvalidInput)
	}
	if err := ValidateUserID(meeting.UserID); err != nil {
		return err
	}
	if meeting.Name == "" {
		return fmt.Errorf("%w: meeting name cannot be empty", ErrInvalidInput)
	}
	if err := ValidateDate(meeting.MeetingOn); err != nil {
		return err
	}

	data, err := r.client.request(ctx, "POST", "user_meetings", meeting, "")
	if err != nil {
		return fmt.Errorf("%w: create meeting: %v", ErrDatabaseError, err)
	}
	var meetings []Meeting
	if err := json.Unmarshal(data, &meetings); err != nil {
		return fmt.Errorf("%w: unmarshal user_meetings: %v", ErrDatabaseError, err)
	}
	if len(meetings) > 0 {
		*meeting = meetings[0]
	}
	return nil
}
