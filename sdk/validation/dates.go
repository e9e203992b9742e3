package validation

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order; ISO forms come first so 2025-03-04 is never
// read as a day-first date.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"01/02/06",
	"01-02-2006",
	"02.01.2006",
}

// ParseFlexibleDate parses a date typed by a person, trying common layouts.
func ParseFlexibleDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(dateStr string) (*time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, nil
	}
	t, err := ParseFlexibleDate(dateStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
