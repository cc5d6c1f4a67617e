// Package authflow establishes backend sessions from OAuth callback URLs
// delivered as deep-link events. A single Bootstrapper is constructed at
// application start and owns all of the flow's mutable state; it is reset
// only by process restart.
package authflow

import (
	"context"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/stillwaterhq/stillwater/internal/analytics"
	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/gotrue"
	"github.com/stillwaterhq/stillwater/internal/logging"
)

// AuthAPI is the slice of the auth backend the bootstrapper needs.
type AuthAPI interface {
	GetUser(ctx context.Context, accessToken string) (*gotrue.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*gotrue.Session, error)
}

// ProfileStore is the slice of the repository the bootstrapper needs.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*database.Profile, error)
	CreateProfile(ctx context.Context, profile *database.Profile) error
}

// Result describes a callback URL that produced a session.
type Result struct {
	User       *gotrue.User
	Session    *gotrue.Session
	NewProfile bool
}

// Bootstrapper turns OAuth callback URLs into sessions, exactly once per
// URL. HandleCallbackURL never returns an error: failures are logged and
// reported to the analytics sink, and a nil Result tells the caller nothing
// happened.
type Bootstrapper struct {
	auth     AuthAPI
	profiles ProfileStore
	sink     analytics.Sink
	logger   *logging.Logger

	mu         sync.Mutex
	processed  map[string]struct{}
	inProgress bool
}

// NewBootstrapper creates a bootstrapper. sink may be analytics.Noop{}.
func NewBootstrapper(auth AuthAPI, profiles ProfileStore, sink analytics.Sink, logger *logging.Logger) *Bootstrapper {
	if sink == nil {
		sink = analytics.Noop{}
	}
	return &Bootstrapper{
		auth:      auth,
		profiles:  profiles,
		sink:      sink,
		logger:    logger,
		processed: make(map[string]struct{}),
	}
}

// HandleCallbackURL processes an OAuth callback URL. It returns nil when the
// URL carries no usable tokens, was already processed, or another flow is in
// progress. A rejected session un-marks the URL so the same URL can be
// retried.
func (b *Bootstrapper) HandleCallbackURL(ctx context.Context, raw string) *Result {
	if !looksLikeCallback(raw) {
		return nil
	}

	tokens, cbErr := extractTokens(raw)
	if cbErr != nil {
		b.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"error_code":        cbErr.Code,
			"error_description": cbErr.Description,
		}).Warn("oauth provider reported an error")
		b.sink.Track(ctx, "sign_in_failed", map[string]interface{}{"reason": cbErr.Code})
		if tokens.Empty() {
			return nil
		}
	}
	// No tokens: never mark the URL, so a better-formed retry is not blocked.
	if tokens.Empty() {
		return nil
	}

	b.mu.Lock()
	if _, done := b.processed[raw]; done {
		b.mu.Unlock()
		return nil
	}
	if b.inProgress {
		b.mu.Unlock()
		b.logger.WithContext(ctx).Debug("oauth flow already in progress; ignoring callback")
		return nil
	}
	b.processed[raw] = struct{}{}
	b.inProgress = true
	b.mu.Unlock()

	result := b.establishSession(ctx, tokens)

	b.mu.Lock()
	b.inProgress = false
	if result == nil {
		delete(b.processed, raw)
	}
	b.mu.Unlock()
	return result
}

// establishSession turns tokens into a verified user, creating the profile
// row on first sign-in.
func (b *Bootstrapper) establishSession(ctx context.Context, tokens Tokens) *Result {
	var session *gotrue.Session
	accessToken := tokens.AccessToken

	if accessToken == "" {
		refreshed, err := b.auth.RefreshSession(ctx, tokens.RefreshToken)
		if err != nil {
			b.logger.WithContext(ctx).WithError(err).Warn("refresh-token exchange failed")
			b.sink.Track(ctx, "sign_in_failed", map[string]interface{}{"reason": "refresh_rejected"})
			return nil
		}
		session = refreshed
		accessToken = refreshed.AccessToken
	}

	user, err := b.auth.GetUser(ctx, accessToken)
	if err != nil {
		b.logger.WithContext(ctx).WithError(err).Warn("session establishment failed")
		b.sink.Track(ctx, "sign_in_failed", map[string]interface{}{"reason": "tokens_rejected"})
		return nil
	}

	created := b.ensureProfile(ctx, user)
	b.sink.Track(ctx, "sign_in_completed", map[string]interface{}{"new_profile": created})
	return &Result{User: user, Session: session, NewProfile: created}
}

// ensureProfile creates a profile row for first-time sign-ins. Failures are
// logged but never block the session: onboarding re-creates the profile.
func (b *Bootstrapper) ensureProfile(ctx context.Context, user *gotrue.User) bool {
	_, err := b.profiles.GetProfile(ctx, user.ID)
	if err == nil {
		return false
	}
	if !database.IsNotFound(err) {
		b.logger.WithContext(ctx).WithError(err).Warn("profile lookup failed during sign-in")
		return false
	}

	profile := &database.Profile{
		ID:          user.ID,
		DisplayName: deriveDisplayName(user.UserMetadata),
	}
	if err := b.profiles.CreateProfile(ctx, profile); err != nil {
		b.logger.WithContext(ctx).WithError(err).Warn("first sign-in profile creation failed")
		return false
	}
	return true
}

// deriveDisplayName builds a short display name from OAuth name metadata:
// the first name plus a trailing initial taken from the last word of a
// multi-word name, or from the name itself when it is a single word. With
// no usable metadata it returns nil and onboarding fills the field in.
func deriveDisplayName(metadata map[string]interface{}) *string {
	name := metadataString(metadata, "given_name")
	if family := metadataString(metadata, "family_name"); family != "" {
		name = strings.TrimSpace(name + " " + family)
	}
	if name == "" {
		name = metadataString(metadata, "full_name")
	}
	if name == "" {
		name = metadataString(metadata, "name")
	}

	words := strings.Fields(name)
	if len(words) == 0 {
		return nil
	}

	initialSource := words[len(words)-1]
	r, _ := utf8.DecodeRuneInString(initialSource)
	display := words[0] + " " + string(unicode.ToUpper(r)) + "."
	return &display
}

func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	s, _ := metadata[key].(string)
	return strings.TrimSpace(s)
}
