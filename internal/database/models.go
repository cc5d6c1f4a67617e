package database

import (
	"strings"
	"time"
)

// =============================================================================
// Profiles
// =============================================================================

// Profile is a user's identity record. Date fields are date-only strings
// (YYYY-MM-DD) interpreted in the profile's timezone.
type Profile struct {
	ID                   string    `json:"id"`
	DisplayName          *string   `json:"display_name"`
	SobrietyDate         *string   `json:"sobriety_date"`
	Timezone             string    `json:"timezone"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	NotificationHour     *int      `json:"notification_hour,omitempty"`
	DailySpendAmount     *float64  `json:"daily_spend_amount,omitempty"`
	SpendCurrency        *string   `json:"spend_currency,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Complete reports whether the profile has finished onboarding: a non-blank
// display name and a sobriety date. Incomplete profiles are redirected to
// onboarding by clients.
func (p *Profile) Complete() bool {
	if p == nil {
		return false
	}
	if p.DisplayName == nil || strings.TrimSpace(*p.DisplayName) == "" {
		return false
	}
	return p.SobrietyDate != nil && *p.SobrietyDate != ""
}

// =============================================================================
// Slip-ups
// =============================================================================

// SlipUp is a logged relapse event. It resets the current streak while the
// original journey start date is preserved on the profile.
type SlipUp struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	SlipUpDate          string    `json:"slip_up_date"`
	RecoveryRestartDate string    `json:"recovery_restart_date"`
	Notes               *string   `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// =============================================================================
// Tasks
// =============================================================================

// Task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
	TaskStatusDismissed = "dismissed"
)

// Task is a sponsor-assigned item for a sponsee.
type Task struct {
	ID          string     `json:"id"`
	SponsorID   string     `json:"sponsor_id"`
	SponseeID   string     `json:"sponsee_id"`
	Title       string     `json:"title"`
	Notes       *string    `json:"notes,omitempty"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ValidTaskStatus reports whether status is one of the known task states.
func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusDismissed:
		return true
	}
	return false
}

// =============================================================================
// Invite codes
// =============================================================================

// Invite code lifecycle states. An invite is single-use: the only transitions
// out of active are used, expired and revoked, all terminal.
const (
	InviteStatusActive  = "active"
	InviteStatusUsed    = "used"
	InviteStatusExpired = "expired"
	InviteStatusRevoked = "revoked"
)

// InviteCode is a short-lived, single-use pairing token created by a sponsor.
type InviteCode struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	CreatorID string     `json:"creator_id"`
	Status    string     `json:"status"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedBy    *string    `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// EffectiveStatus returns the invite's status as of now: a stored "active"
// invite whose expiry has passed reads as expired.
func (i *InviteCode) EffectiveStatus(now time.Time) string {
	if i.Status == InviteStatusActive && now.After(i.ExpiresAt) {
		return InviteStatusExpired
	}
	return i.Status
}

// =============================================================================
// Sponsor/sponsee relationships
// =============================================================================

// Relationship statuses.
const (
	RelationshipStatusActive = "active"
	RelationshipStatusEnded  = "ended"
)

// Contact-info reveal states derived from the two consent flags.
const (
	RevealNone        = "none"
	RevealYouPending  = "you_pending"
	RevealThemPending = "them_pending"
	RevealMutual      = "mutual"
)

// Relationship is a bidirectional sponsor/sponsee pairing. Contact info is
// disclosed only when both consent flags are true simultaneously.
type Relationship struct {
	ID             string     `json:"id"`
	SponsorID      string     `json:"sponsor_id"`
	SponseeID      string     `json:"sponsee_id"`
	SponsorConsent bool       `json:"sponsor_consent"`
	SponseeConsent bool       `json:"sponsee_consent"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// RevealState returns the contact-reveal state from the perspective of
// viewerID, who must be one of the two parties.
func (r *Relationship) RevealState(viewerID string) string {
	mine, theirs := r.SponsorConsent, r.SponseeConsent
	if viewerID == r.SponseeID {
		mine, theirs = r.SponseeConsent, r.SponsorConsent
	}
	switch {
	case mine && theirs:
		return RevealMutual
	case mine:
		return RevealYouPending
	case theirs:
		return RevealThemPending
	default:
		return RevealNone
	}
}

// =============================================================================
// Reference content and per-user logs
// =============================================================================

// StepContent is a static program step (reference content).
type StepContent struct {
	ID         string `json:"id"`
	StepNumber int    `json:"step_number"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// Prayer is static reference content.
type Prayer struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category,omitempty"`
}

// StepProgress is a per-user step completion record.
type StepProgress struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	StepNumber  int        `json:"step_number"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Meeting is a per-user attendance log entry.
type Meeting struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	MeetingOn string    `json:"meeting_on"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
