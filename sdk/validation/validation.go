// Package validation holds small helpers for optional fields and input shapes
// shared by the API and the web front end.
package validation

import (
	"regexp"
	"strings"
	"time"
)

// emailPattern is the local@domain.tld shape the forms and the auth backend accept.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether s has the local@domain.tld shape.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailLocalPart returns the part of an address before the @.
func EmailLocalPart(s string) string {
	local, _, _ := strings.Cut(s, "@")
	return local
}

func StringPtr(s string) *string {
	return &s
}

func BoolPtr(b bool) *bool {
	return &b
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

// StringPtrValue returns the string value or an empty string if nil.
func StringPtrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtrIfNotEmpty returns nil for the empty string.
func StringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SplitTags turns "a, b,,c" into [a b c], dropping duplicates and blanks.
func SplitTags(s string) []string {
	tags := make([]string, 0)
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// FormatTimePtrToString formats t as RFC3339, or "" when nil.
func FormatTimePtrToString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// FormatDatePtrToString formats t as YYYY-MM-DD, or "" when nil.
func FormatDatePtrToString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
