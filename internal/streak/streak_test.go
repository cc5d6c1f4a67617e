package streak

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%s): %v", name, err)
	}
	return loc
}

func TestDaysBetween_Oracle(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")
	now := time.Date(2024, 4, 10, 19, 0, 0, 0, time.UTC) // noon PDT

	days, err := DaysBetween("2024-01-01", now, la)
	if err != nil {
		t.Fatalf("DaysBetween: %v", err)
	}
	if days != 100 {
		t.Fatalf("days = %d, want 100", days)
	}

	days, err = DaysBetween("2024-03-02", now, la)
	if err != nil {
		t.Fatalf("DaysBetween: %v", err)
	}
	if days != 39 {
		t.Fatalf("days = %d, want 39", days)
	}
}

func TestDaysBetween_StartDateIsDayZero(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	// 11pm PST on the start date itself.
	now := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)
	days, err := DaysBetween("2024-01-01", now, la)
	if err != nil {
		t.Fatalf("DaysBetween: %v", err)
	}
	if days != 0 {
		t.Fatalf("days = %d, want 0", days)
	}

	// One hour later it is past local midnight: day 1.
	days, err = DaysBetween("2024-01-01", now.Add(time.Hour), la)
	if err != nil {
		t.Fatalf("DaysBetween: %v", err)
	}
	if days != 1 {
		t.Fatalf("days = %d, want 1", days)
	}
}

func TestDaysBetween_ProfileTimezoneWins(t *testing.T) {
	// Same instant, handed over in different wall-clock representations,
	// must produce the same count: only the profile timezone matters.
	la := mustLoc(t, "America/Los_Angeles")
	tokyo := mustLoc(t, "Asia/Tokyo")

	instant := time.Date(2024, 4, 10, 19, 0, 0, 0, time.UTC)
	asUTC, err := DaysBetween("2024-01-01", instant, la)
	if err != nil {
		t.Fatalf("DaysBetween: %v", err)
	}
	asTokyo, err := DaysBetween("2024-01-01", instant.In(tokyo), la)
	if err != nil {
		t.Fatalf("DaysBetween: %v", err)
	}
	if asUTC != asTokyo {
		t.Fatalf("count changed with representation: %d vs %d", asUTC, asTokyo)
	}
}

func TestDaysBetween_FutureDateClampsToZero(t *testing.T) {
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	days, err := DaysBetween("2024-12-25", now, time.UTC)
	if err != nil {
		t.Fatalf("DaysBetween: %v", err)
	}
	if days != 0 {
		t.Fatalf("days = %d, want 0", days)
	}
}

func TestDaysBetween_MonotonicAcrossDays(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")
	prev := -1
	// Walk across the March 2024 DST transition one day at a time.
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		days, err := DaysBetween("2024-01-01", now, la)
		if err != nil {
			t.Fatalf("DaysBetween: %v", err)
		}
		if days < prev {
			t.Fatalf("count decreased: %d after %d", days, prev)
		}
		if days != prev && days != prev+1 && prev != -1 {
			t.Fatalf("count jumped: %d after %d", days, prev)
		}
		prev = days
		now = now.Add(24 * time.Hour)
	}
}

func TestDaysBetween_RejectsMalformedDate(t *testing.T) {
	if _, err := DaysBetween("01/02/2024", time.Now(), time.UTC); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestNextMidnight(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	now := time.Date(2024, 4, 10, 19, 0, 0, 0, time.UTC) // noon PDT
	next := NextMidnight(now, la)
	want := time.Date(2024, 4, 11, 0, 0, 0, 0, la)
	if !next.Equal(want) {
		t.Fatalf("NextMidnight = %v, want %v", next, want)
	}

	// Spring-forward night: the gap to the next midnight is 23 hours.
	beforeDST := time.Date(2024, 3, 9, 0, 0, 0, 0, la)
	next = NextMidnight(beforeDST, la)
	if got := next.Sub(beforeDST); got != 24*time.Hour {
		// March 9 -> March 10 midnight is still a full day; the short night
		// is March 10 -> March 11.
		t.Fatalf("unexpected gap: %v", got)
	}
	shortNight := NextMidnight(next, la)
	if got := shortNight.Sub(next); got != 23*time.Hour {
		t.Fatalf("DST-night gap = %v, want 23h", got)
	}
}
