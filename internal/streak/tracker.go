package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/logging"
)

// SlipUpSource supplies the most recent slip-up for a user. A not-found
// error means the user has never slipped.
type SlipUpSource interface {
	GetLatestSlipUp(ctx context.Context, userID string) (*database.SlipUp, error)
}

// Result is a computed day count. Err is non-fatal: when the slip-up lookup
// fails, Counts still carries a best-effort DaysSober computed from the
// original sobriety date alone.
type Result struct {
	Counts
	Err error
}

// Tracker computes day counts for profiles.
type Tracker struct {
	slipUps SlipUpSource
	logger  *logging.Logger
	// now is swappable for tests.
	now func() time.Time
}

// NewTracker creates a tracker over the given slip-up source.
func NewTracker(slipUps SlipUpSource, logger *logging.Logger) *Tracker {
	return &Tracker{
		slipUps: slipUps,
		logger:  logger,
		now:     time.Now,
	}
}

// Compute returns the day counts for profile as of the tracker's clock. It
// never returns an error: failures degrade to a best-effort count with
// Result.Err set.
func (t *Tracker) Compute(ctx context.Context, profile *database.Profile) Result {
	return t.computeAt(ctx, profile, t.now())
}

func (t *Tracker) computeAt(ctx context.Context, profile *database.Profile, now time.Time) Result {
	if profile == nil || profile.SobrietyDate == nil || *profile.SobrietyDate == "" {
		return Result{Err: fmt.Errorf("profile has no sobriety date")}
	}

	loc := t.location(ctx, profile.Timezone)

	journeyDays, err := DaysBetween(*profile.SobrietyDate, now, loc)
	if err != nil {
		return Result{Err: err}
	}

	result := Result{Counts: Counts{
		JourneyDays: journeyDays,
		DaysSober:   journeyDays,
	}}

	slipUp, err := t.slipUps.GetLatestSlipUp(ctx, profile.ID)
	if err != nil {
		if database.IsNotFound(err) {
			return result
		}
		// Degrade: report the journey-based count and surface a non-fatal
		// error for the caller to display or ignore.
		t.logger.WithContext(ctx).WithError(err).Warn("slip-up lookup failed; returning journey-based count")
		result.Err = err
		return result
	}

	result.HasSlipUps = true
	daysSober, err := DaysBetween(slipUp.RecoveryRestartDate, now, loc)
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Warn("invalid recovery restart date; returning journey-based count")
		result.Err = err
		return result
	}
	result.DaysSober = daysSober
	return result
}

// location resolves the profile timezone, falling back to UTC for unknown
// names. Only the profile timezone ever matters, never the host's.
func (t *Tracker) location(ctx context.Context, name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Warnf("unknown timezone %q; falling back to UTC", name)
		return time.UTC
	}
	return loc
}
