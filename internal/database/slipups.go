package database

import (
	"context"
	"encoding/json"
	"fmt"
)

// =============================================================================
// Slip-up Operations
// =============================================================================

// GetLatestSlipUp retrieves the most recent slip-up for a user, or a
// not-found error when the user has none.
func (r *Repository) GetLatestSlipUp(ctx context.Context, userID string) (*SlipUp, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("user_id=eq.%s&order=slip_up_date.desc&limit=1", userID)
	data, err := r.client.request(ctx, "GET", "slip_ups", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: get latest slip-up: %v", ErrDatabaseError, err)
	}

	var slipUps []SlipUp
	if err := json.Unmarshal(data, &slipUps); err != nil {
		return nil, fmt.Errorf("%w: unmarshal slip_ups: %v", ErrDatabaseError, err)
	}
	if len(slipUps) == 0 {
		return nil, NewNotFoundError("slip_up", userID)
	}
	return &slipUps[0], nil
}

// ListSlipUps retrieves all slip-ups for a user, newest first.
func (r *Repository) ListSlipUps(ctx context.Context, userID string) ([]SlipUp, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("user_id=eq.%s&order=slip_up_date.desc", userID)
	data, err := r.client.request(ctx, "GET", "slip_ups", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list slip-ups: %v", ErrDatabaseError, err)
	}

	var slipUps []SlipUp
	if err := json.Unmarshal(data, &slipUps); err != nil {
		return nil, fmt.Errorf("%w: unmarshal slip_ups: %v", ErrDatabaseError, err)
	}
	return slipUps, nil
}

// CreateSlipUp records a relapse event. The recovery restart date must not
// precede the slip-up date.
func (r *Repository) CreateSlipUp(ctx context.Context, slipUp *SlipUp) error {
	if slipUp == nil {
		return fmt.Errorf("%w: slip-up cannot be nil", ErrInvalidInput)
	}
	if err := ValidateUserID(slipUp.UserID); err != nil {
		return err
	}
	if err := ValidateDate(slipUp.SlipUpDate); err != nil {
		return err
	}
	if err := ValidateDate(slipUp.RecoveryRestartDate); err != nil {
		return err
	}
	if slipUp.RecoveryRestartDate < slipUp.SlipUpDate {
		return fmt.Errorf("%w: recovery restart date precedes slip-up date", ErrInvalidInput)
	}

	data, err := r.client.request(ctx, "POST", "slip_ups", slipUp, "")
	if err != nil {
		return fmt.Errorf("%w: create slip-up: %v", ErrDatabaseError, err)
	}
	var slipUps []SlipUp
	if err := json.Unmarshal(data, &slipUps); err != nil {
		return fmt.Errorf("%w: unmarshal slip_ups: %v", ErrDatabaseError, err)
	}
	if len(slipUps) > 0 {
		slipUp.ID = slipUps[0].ID
		slipUp.CreatedAt = slipUps[0].CreatedAt
	}
	return nil
}
