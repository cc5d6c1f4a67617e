package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// =============================================================================
// Sponsor/Sponsee Relationship Operations
// =============================================================================

// CreateRelationship pairs a sponsor with a sponsee. Both consent flags start
// false; contact info stays hidden until both are set.
func (r *Repository) CreateRelationship(ctx context.Context, sponsorID, sponseeID string) (*Relationship, error) {
	if err := ValidateUserID(sponsorID); err != nil {
		return nil, err
	}
	if err := ValidateUserID(sponseeID); err != nil {
		return nil, err
	}
	if sponsorID == sponseeID {
		return nil, fmt.Errorf("%w: sponsor and sponsee must differ", ErrInvalidInput)
	}

	rel := &Relationship{
		SponsorID: sponsorID,
		SponseeID: sponseeID,
		Status:    RelationshipStatusActive,
	}

	data, err := r.client.request(ctx, "POST", "sponsor_sponsee_relationships", rel, "")
	if err != nil {
		return nil, fmt.Errorf("%w: create relationship: %v", ErrDatabaseError, err)
	}
	var rels []Relationship
	if err := json.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("%w: unmarshal relationships: %v", ErrDatabaseError, err)
	}
	if len(rels) > 0 {
		rel = &rels[0]
	}
	return rel, nil
}

// ListRelationshipsForUser retrieves a user's active relationships on either
// side of the pairing.
func (r *Repository) ListRelationshipsForUser(ctx context.Context, userID string) ([]Relationship, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	filter := fmt.Sprintf("(sponsor_id.eq.%s,sponsee_id.eq.%s)", userID, userID)
	query := fmt.Sprintf("or=%s&status=eq.%s&order=created_at.desc",
		url.QueryEscape(filter), RelationshipStatusActive)
	data, err := r.client.request(ctx, "GET", "sponsor_sponsee_relationships", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list relationships: %v", ErrDatabaseError, err)
	}

	var rels []Relationship
	if err := json.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("%w: unmarshal relationships: %v", ErrDatabaseError, err)
	}
	return rels, nil
}

// GetRelationship retrieves a relationship by ID.
func (r *Repository) GetRelationship(ctx context.Context, relationshipID string) (*Relationship, error) {
	if err := ValidateID(relationshipID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("id=eq.%s&limit=1", relationshipID)
	data, err := r.client.request(ctx, "GET", "sponsor_sponsee_relationships", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: get relationship: %v", ErrDatabaseError, err)
	}

	var rels []Relationship
	if err := json.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("%w: unmarshal relationships: %v", ErrDatabaseError, err)
	}
	if len(rels) == 0 {
		return nil, NewNotFoundError("relationship", relationshipID)
	}
	return &rels[0], nil
}

// SetRevealConsent sets the calling party's contact-reveal flag. The column
// updated depends on which side of the pairing userID is on.
func (r *Repository) SetRevealConsent(ctx context.Context, relationshipID, userID string, consent bool) (*Relationship, error) {
	rel, err := r.GetRelationship(ctx, relationshipID)
	if err != nil {
		return nil, err
	}

	var column string
	switch userID {
	case rel.SponsorID:
		column = "sponsor_consent"
	case rel.SponseeID:
		column = "sponsee_consent"
	default:
		return nil, fmt.Errorf("%w: user %s is not part of relationship %s", ErrInvalidInput, userID, relationshipID)
	}

	update := map[string]interface{}{column: consent}
	query := fmt.Sprintf("id=eq.%s", relationshipID)
	data, err := r.client.request(ctx, "PATCH", "sponsor_sponsee_relationships", update, query)
	if err != nil {
		return nil, fmt.Errorf("%w: set reveal consent: %v", ErrDatabaseError, err)
	}

	var rels []Relationship
	if err := json.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("%w: unmarshal relationships: %v", ErrDatabaseError, err)
	}
	if len(rels) == 0 {
		return nil, NewNotFoundError("relationship", relationshipID)
	}
	return &rels[0], nil
}

// EndRelationship marks a relationship ended. Either party may end it.
func (r *Repository) EndRelationship(ctx context.Context, relationshipID, userID string) error {
	rel, err := r.GetRelationship(ctx, relationshipID)
	if err != nil {
		return err
	}
	if userID != rel.SponsorID && userID != rel.SponseeID {
		return fmt.Errorf("%w: user %s is not part of relationship %s", ErrInvalidInput, userID, relationshipID)
	}

	update := map[string]interface{}{
		"status":   RelationshipStatusEnded,
		"ended_at": time.Now().UTC(),
	}
	query := fmt.Sprintf("id=eq.%s&status=eq.%s", relationshipID, RelationshipStatusActive)
	data, err := r.client.request(ctx, "PATCH", "sponsor_sponsee_relationships", update, query)
	if err != nil {
		return fmt.Errorf("%w: end relationship: %v", ErrDatabaseError, err)
	}

	var rels []Relationship
	if err := json.Unmarshal(data, &rels); err != nil {
		return fmt.Errorf("%w: unmarshal relationships: %v", ErrDatabaseError, err)
	}
	if len(rels) == 0 {
		return fmt.Errorf("%w: relationship already ended", ErrConflict)
	}
	return nil
}
