package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidateUserID checks that id is a non-empty UUID.
func ValidateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: user id must be a UUID", ErrInvalidInput)
	}
	return nil
}

// ValidateID checks that id is a non-empty UUID.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: id must be a UUID", ErrInvalidInput)
	}
	return nil
}

// ValidateDate checks that value is a YYYY-MM-DD date string.
func ValidateDate(value string) error {
	if value == "" {
		return fmt.Errorf("%w: date cannot be empty", ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}

// ValidateTimezone checks that value names a known IANA timezone.
func ValidateTimezone(value string) error {
	if value == "" {
		return fmt.Errorf("%w: timezone cannot be empty", ErrInvalidInput)
	}
	if _, err := time.LoadLocation(value); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, value)
	}
	return nil
}

// SanitizeString strips characters that carry meaning in PostgREST query
// syntax, preventing filter injection through string parameters.
func SanitizeString(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '&', '=', ',', '(', ')', '?', '*':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, value)
}
