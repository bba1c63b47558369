package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/huddle/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// TodayIn returns today's date string (YYYY-MM-DD) for now as seen in loc.
func TodayIn(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(constants.DateFormat)
}

// ParseDay parses a YYYY-MM-DD string into midnight of that day in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", day, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ValidateDay checks that day is a calendar date in the standard format.
func ValidateDay(day string) bool {
	_, err := time.Parse(constants.DateFormat, day)
	return err == nil
}

// IsFutureDay reports whether day lies after today in loc.
func IsFutureDay(day string, now time.Time, loc *time.Location) bool {
	// Lexical order matches chronological order for YYYY-MM-DD.
	return day > TodayIn(now, loc)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
