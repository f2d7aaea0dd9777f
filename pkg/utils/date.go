package utils

import (
	"time"
)

// LoadLocation returns the named location, or UTC when it is empty or
// unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func PrettyDate(date time.Time) string {
	return date.Format("02 Jan 2006 - 15:04 MST")
}

// ParseDate parses a YYYY-MM-DD date as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
