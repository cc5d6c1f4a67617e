// Package streak computes sobriety day counts in a profile's timezone.
package streak

import (
	"fmt"
	"time"
)

// DateLayout is the date-only wire format for sobriety and slip-up dates.
const DateLayout = "2006-01-02"

// Counts holds the two day counts shown to a user.
type Counts struct {
	// DaysSober counts calendar days since the most recent restart date.
	DaysSober int `json:"days_sober"`
	// JourneyDays counts calendar days since the original sobriety date.
	JourneyDays int `json:"journey_days"`
	// HasSlipUps reports whether a slip-up record exists.
	HasSlipUps bool `json:"has_slip_ups"`
}

// DaysBetween returns the calendar-day difference between a date-only start
// (midnight in loc) and now (converted to loc). The start date itself is day
// 0; the next calendar day in loc is day 1. Negative results clamp to 0.
//
// The count compares calendar dates, not elapsed hours, so DST transitions
// between the two instants do not shift it.
func DaysBetween(start string, now time.Time, loc *time.Location) (int, error) {
	startDate, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", start, err)
	}

	local := now.In(loc)

	// Re-anchor both calendar dates at UTC midnight so the subtraction is a
	// whole number of days regardless of DST offsets in loc.
	startUTC := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
	nowUTC := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	days := int(nowUTC.Sub(startUTC) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return days, nil
}

// NextMidnight returns the next local midnight in loc strictly after now.
// time.Date normalizes skipped or repeated wall-clock times across DST.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}
