package database

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedSteps(t *testing.T) {
	var gotQuery, gotPrefer string
	var gotBody []StepContent
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/rest/v1/steps_content", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotPrefer = r.Header.Get("Prefer")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(gotBody)
	})))

	steps := []StepContent{
		{StepNumber: 1, Title: "Honesty", Body: "We admitted we were powerless."},
		{StepNumber: 2, Title: "Hope", Body: "Came to believe."},
	}
	require.NoError(t, repo.SeedSteps(context.Background(), steps))

	assert.Equal(t, "on_conflict=step_number", gotQuery)
	assert.Contains(t, gotPrefer, "resolution=merge-duplicates", "on_conflict only merges when the request prefers it")
	assert.Len(t, gotBody, 2)
	assert.Equal(t, "Honesty", gotBody[0].Title)
}

func TestSeedStepsValidation(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid seed data must not reach the backend")
	})))

	tests := []struct {
		name  string
		steps []StepContent
	}{
		{"empty", nil},
		{"step number zero", []StepContent{{StepNumber: 0, Title: "x", Body: "y"}}},
		{"step number too high", []StepContent{{StepNumber: 13, Title: "x", Body: "y"}}},
		{"missing title", []StepContent{{StepNumber: 1, Body: "y"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.SeedSteps(context.Background(), tt.steps)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestSeedPrayers(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/prayers", r.URL.Path)
		assert.Equal(t, "on_conflict=title", r.URL.RawQuery)
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")
		w.Write([]byte("[]"))
	})))

	err := repo.SeedPrayers(context.Background(), []Prayer{
		{Title: "Serenity Prayer", Body: "Grant me the serenity.", Category: "daily"},
	})
	require.NoError(t, err)

	err = repo.SeedPrayers(context.Background(), []Prayer{{Title: "No body"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpsertStepProgress(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/rest/v1/user_step_progress", r.URL.Path)
		assert.Equal(t, "on_conflict=user_id,step_number", r.URL.RawQuery)
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")

		var got StepProgress
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.NotNil(t, got.CompletedAt, "upsert should stamp completion time")

		got.ID = "11111111-2222-3333-4444-555555555555"
		json.NewEncoder(w).Encode([]StepProgress{got})
	})))

	progress := &StepProgress{
		UserID:     "a3bb189e-8bf9-3888-9912-ace4e6543002",
		StepNumber: 4,
	}
	require.NoError(t, repo.UpsertStepProgress(context.Background(), progress))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", progress.ID)
}

func TestUpsertStepProgressRejectsBadStepNumber(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid progress must not reach the backend")
	})))

	err := repo.UpsertStepProgress(context.Background(), &StepProgress{
		UserID:     "a3bb189e-8bf9-3888-9912-ace4e6543002",
		StepNumber: 13,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateMeetingValidation(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got Meeting
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		got.ID = "66666666-7777-8888-9999-000000000000"
		json.NewEncoder(w).Encode([]Meeting{got})
	})))

	meeting := &Meeting{
		UserID:    "a3bb189e-8bf9-3888-9912-ace4e6543002",
		Name:      "Tuesday Night Group",
		MeetingOn: "2026-08-25",
	}
	require.NoError(t, repo.CreateMeeting(context.Background(), meeting))
	assert.Equal(t, "66666666-7777-8888-9999-000000000000", meeting.ID)

	err := repo.CreateMeeting(context.Background(), &Meeting{
		UserID:    "a3bb189e-8bf9-3888-9912-ace4e6543002",
		MeetingOn: "2026-08-25",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = repo.CreateMeeting(context.Background(), &Meeting{
		UserID:    "a3bb189e-8bf9-3888-9912-ace4e6543002",
		Name:      "Bad date",
		MeetingOn: "25/08/2026",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
