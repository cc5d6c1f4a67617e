package database

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// Invite Code Operations
// =============================================================================

// inviteCodeAlphabet avoids ambiguous characters (0/O, 1/I/L).
const inviteCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const inviteCodeLength = 8

// GenerateInviteCode returns a random pairing code.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf), nil
}

// CreateInviteCode creates a new active invite for the given creator.
func (r *Repository) CreateInviteCode(ctx context.Context, creatorID string, ttl time.Duration) (*InviteCode, error) {
	if err := ValidateUserID(creatorID); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: invite ttl must be positive", ErrInvalidInput)
	}

	code, err := GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	invite := &InviteCode{
		Code:      code,
		CreatorID: creatorID,
		Status:    InviteStatusActive,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}

	data, err := r.client.request(ctx, "POST", "invite_codes", invite, "")
	if err != nil {
		return nil, fmt.Errorf("%w: create invite code: %v", ErrDatabaseError, err)
	}
	var invites []InviteCode
	if err := json.Unmarshal(data, &invites); err != nil {
		return nil, fmt.Errorf("%w: unmarshal invite_codes: %v", ErrDatabaseError, err)
	}
	if len(invites) > 0 {
		invite = &invites[0]
	}
	return invite, nil
}

// GetInviteByCode retrieves an invite by its code string.
func (r *Repository) GetInviteByCode(ctx context.Context, code string) (*InviteCode, error) {
	code = SanitizeString(code)
	if code == "" {
		return nil, fmt.Errorf("%w: invite code cannot be empty", ErrInvalidInput)
	}

	query := fmt.Sprintf("code=eq.%s&limit=1", code)
	data, err := r.client.request(ctx, "GET", "invite_codes", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: get invite code: %v", ErrDatabaseError, err)
	}

	var invites []InviteCode
	if err := json.Unmarshal(data, &invites); err != nil {
		return nil, fmt.Errorf("%w: unmarshal invite_codes: %v", ErrDatabaseError, err)
	}
	if len(invites) == 0 {
		return nil, NewNotFoundError("invite_code", code)
	}
	return &invites[0], nil
}

// ListInvitesByCreator retrieves all invites created by a user, newest first.
func (r *Repository) ListInvitesByCreator(ctx context.Context, creatorID string) ([]InviteCode, error) {
	if err := ValidateUserID(creatorID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("creator_id=eq.%s&order=created_at.desc", creatorID)
	data, err := r.client.request(ctx, "GET", "invite_codes", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list invite codes: %v", ErrDatabaseError, err)
	}

	var invites []InviteCode
	if err := json.Unmarshal(data, &invites); err != nil {
		return nil, fmt.Errorf("%w: unmarshal invite_codes: %v", ErrDatabaseError, err)
	}
	return invites, nil
}

// RedeemInvite atomically consumes an active invite for redeemerID. The PATCH
// is conditioned on status=active so a concurrent redeem of the same code
// updates zero rows and reports a conflict; the invite is single-use.
func (r *Repository) RedeemInvite(ctx context.Context, code, redeemerID string) (*InviteCode, error) {
	code = SanitizeString(code)
	if code == "" {
		return nil, fmt.Errorf("%w: invite code cannot be empty", ErrInvalidInput)
	}
	if err := ValidateUserID(redeemerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := map[string]interface{}{
		"status":  InviteStatusUsed,
		"used_by": redeemerID,
		"used_at": now,
	}
	query := fmt.Sprintf("code=eq.%s&status=eq.%s&expires_at=gt.%s",
		code, InviteStatusActive, now.Format(time.RFC3339))
	data, err := r.client.request(ctx, "PATCH", "invite_codes", update, query)
	if err != nil {
		return nil, fmt.Errorf("%w: redeem invite: %v", ErrDatabaseError, err)
	}

	var invites []InviteCode
	if err := json.Unmarshal(data, &invites); err != nil {
		return nil, fmt.Errorf("%w: unmarshal invite_codes: %v", ErrDatabaseError, err)
	}
	if len(invites) == 0 {
		// Distinguish a missing code from a consumed/expired/revoked one.
		existing, getErr := r.GetInviteByCode(ctx, code)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: invite is %s", ErrConflict, existing.EffectiveStatus(now))
	}
	return &invites[0], nil
}

// ReactivateInvite returns a just-consumed invite to the active state,
// clearing used_by and used_at. The redeem flow uses it to avoid burning a
// single-use code when the follow-up pairing insert fails.
func (r *Repository) ReactivateInvite(ctx context.Context, inviteID string) error {
	if err := ValidateID(inviteID); err != nil {
		return err
	}

	update := map[string]interface{}{
		"status":  InviteStatusActive,
		"used_by": nil,
		"used_at": nil,
	}
	query := fmt.Sprintf("id=eq.%s&status=eq.%s", inviteID, InviteStatusUsed)
	data, err := r.client.request(ctx, "PATCH", "invite_codes", update, query)
	if err != nil {
		return fmt.Errorf("%w: reactivate invite: %v", ErrDatabaseError, err)
	}

	var invites []InviteCode
	if err := json.Unmarshal(data, &invites); err != nil {
		return fmt.Errorf("%w: unmarshal invite_codes: %v", ErrDatabaseError, err)
	}
	if len(invites) == 0 {
		return NewNotFoundError("invite_code", inviteID)
	}
	return nil
}

// RevokeInvite marks an active invite revoked. Only the creator can revoke.
func (r *Repository) RevokeInvite(ctx context.Context, inviteID, creatorID string) error {
	if err := ValidateID(inviteID); err != nil {
		return err
	}
	if err := ValidateUserID(creatorID); err != nil {
		return err
	}

	update := map[string]interface{}{"status": InviteStatusRevoked}
	query := fmt.Sprintf("id=eq.%s&creator_id=eq.%s&status=eq.%s", inviteID, creatorID, InviteStatusActive)
	data, err := r.client.request(ctx, "PATCH", "invite_codes", update, query)
	if err != nil {
		return fmt.Errorf("%w: revoke invite: %v", ErrDatabaseError, err)
	}

	var invites []InviteCode
	if err := json.Unmarshal(data, &invites); err != nil {
		return fmt.Errorf("%w: unmarshal invite_codes: %v", ErrDatabaseError, err)
	}
	if len(invites) == 0 {
		return NewNotFoundError("invite_code", inviteID)
	}
	return nil
}

// ExpireStaleInvites flips stored-active invites whose expiry has passed to
// expired. Display relies on EffectiveStatus regardless; this keeps the
// stored rows tidy.
func (r *Repository) ExpireStaleInvites(ctx context.Context) (int, error) {
	update := map[string]interface{}{"status": InviteStatusExpired}
	query := fmt.Sprintf("status=eq.%s&expires_at=lt.%s",
		InviteStatusActive, time.Now().UTC().Format(time.RFC3339))
	data, err := r.client.request(ctx, "PATCH", "invite_codes", update, query)
	if err != nil {
		return 0, fmt.Errorf("%w: expire invites: %v", ErrDatabaseError, err)
	}

	var invites []InviteCode
	if err := json.Unmarshal(data, &invites); err != nil {
		return 0, fmt.Errorf("%w: unmarshal invite_codes: %v", ErrDatabaseError, err)
	}
	return len(invites), nil
}
