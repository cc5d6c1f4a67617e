package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// Profile Operations
// =============================================================================

// GetProfile retrieves a profile by user ID.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("id=eq.%s&limit=1", userID)
	data, err := r.client.request(ctx, "GET", "profiles", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: get profile: %v", ErrDatabaseError, err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("%w: unmarshal profiles: %v", ErrDatabaseError, err)
	}
	if len(profiles) == 0 {
		return nil, NewNotFoundError("profile", userID)
	}
	return &profiles[0], nil
}

// CreateProfile creates a new profile row.
func (r *Repository) CreateProfile(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile cannot be nil", ErrInvalidInput)
	}
	if err := ValidateUserID(profile.ID); err != nil {
		return err
	}
	if profile.Timezone != "" {
		if err := ValidateTimezone(profile.Timezone); err != nil {
			return err
		}
	}
	if profile.SobrietyDate != nil {
		if err := ValidateDate(*profile.SobrietyDate); err != nil {
			return err
		}
	}

	data, err := r.client.request(ctx, "POST", "profiles", profile, "")
	if err != nil {
		return fmt.Errorf("%w: create profile: %v", ErrDatabaseError, err)
	}
	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("%w: unmarshal profiles: %v", ErrDatabaseError, err)
	}
	if len(profiles) > 0 {
		*profile = profiles[0]
	}
	return nil
}

// ProfileUpdate holds the mutable profile fields for a PATCH. Nil fields are
// left untouched.
type ProfileUpdate struct {
	DisplayName          *string  `json:"display_name,omitempty"`
	SobrietyDate         *string  `json:"sobriety_date,omitempty"`
	Timezone             *string  `json:"timezone,omitempty"`
	NotificationsEnabled *bool    `json:"notifications_enabled,omitempty"`
	NotificationHour     *int     `json:"notification_hour,omitempty"`
	DailySpendAmount     *float64 `json:"daily_spend_amount,omitempty"`
	SpendCurrency        *string  `json:"spend_currency,omitempty"`
}

// UpdateProfile applies a partial update to a profile and returns the updated
// row.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	if update.Timezone != nil {
		if err := ValidateTimezone(*update.Timezone); err != nil {
			return nil, err
		}
	}
	if update.SobrietyDate != nil {
		if err := ValidateDate(*update.SobrietyDate); err != nil {
			return nil, err
		}
	}

	body := map[string]interface{}{"updated_at": time.Now().UTC()}
	raw, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal update: %v", ErrDatabaseError, err)
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: build update: %v", ErrDatabaseError, err)
	}

	query := fmt.Sprintf("id=eq.%s", userID)
	data, err := r.client.request(ctx, "PATCH", "profiles", body, query)
	if err != nil {
		return nil, fmt.Errorf("%w: update profile: %v", ErrDatabaseError, err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("%w: unmarshal profiles: %v", ErrDatabaseError, err)
	}
	if len(profiles) == 0 {
		return nil, NewNotFoundError("profile", userID)
	}
	return &profiles[0], nil
}
