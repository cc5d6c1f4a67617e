package database

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

const testUserID = "a3bb189e-8bf9-3888-9912-ace4e6543002"

func strPtr(s string) *string { return &s }

func TestProfiles_GetProfile_NotFound(t *testing.T) {
	client := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/profiles" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	repo := NewRepository(client)

	_, err := repo.GetProfile(context.Background(), testUserID)
	if err == nil || !IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestProfiles_GetProfile_RejectsBadID(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the backend")
	})))

	_, err := repo.GetProfile(context.Background(), "not-a-uuid")
	if err == nil || !IsInvalidInput(err) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestProfiles_GetProfile_Success(t *testing.T) {
	client := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "eq."+testUserID {
			t.Fatalf("unexpected id query: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Profile{{
			ID:           testUserID,
			DisplayName:  strPtr("Sam K."),
			SobrietyDate: strPtr("2024-01-01"),
			Timezone:     "America/Los_Angeles",
		}})
	}))
	repo := NewRepository(client)

	got, err := repo.GetProfile(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Timezone != "America/Los_Angeles" {
		t.Fatalf("unexpected timezone: %q", got.Timezone)
	}
	if !got.Complete() {
		t.Fatal("expected profile to be complete")
	}
}

func TestProfiles_CreateProfile_ValidatesTimezone(t *testing.T) {
	repo := NewRepository(newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the backend")
	})))

	err := repo.CreateProfile(context.Background(), &Profile{
		ID:       testUserID,
		Timezone: "Mars/Olympus_Mons",
	})
	if err == nil || !IsInvalidInput(err) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestProfiles_UpdateProfile_PatchesChangedFields(t *testing.T) {
	client := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("method = %s, want PATCH", r.Method)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["display_name"] != "Sam K." {
			t.Fatalf("unexpected display_name: %v", body["display_name"])
		}
		if _, present := body["sobriety_date"]; present {
			t.Fatal("sobriety_date should not be patched")
		}
		if _, present := body["updated_at"]; !present {
			t.Fatal("updated_at should be stamped")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Profile{{ID: testUserID, DisplayName: strPtr("Sam K.")}})
	}))
	repo := NewRepository(client)

	got, err := repo.UpdateProfile(context.Background(), testUserID, ProfileUpdate{
		DisplayName: strPtr("Sam K."),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.DisplayName == nil || *got.DisplayName != "Sam K." {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestProfile_Complete(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		want    bool
	}{
		{"nil profile", nil, false},
		{"empty", &Profile{}, false},
		{"blank display name", &Profile{DisplayName: strPtr("   "), SobrietyDate: strPtr("2024-01-01")}, false},
		{"missing sobriety date", &Profile{DisplayName: strPtr("Sam")}, false},
		{"complete", &Profile{DisplayName: strPtr("Sam"), SobrietyDate: strPtr("2024-01-01")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Complete(); got != tt.want {
				t.Fatalf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}
