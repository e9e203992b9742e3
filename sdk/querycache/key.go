package querycache

import (
	"strconv"
	"strings"
)

// Key identifies a cached query. Keys form a hierarchy: ["tasks"] is a prefix
// of ["tasks", "abc"], so invalidating ["tasks"] touches both.
type Key []string

// HasPrefix reports whether prefix matches the leading parts of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = strconv.Quote(p)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (k Key) hash() string {
	return strings.Join(k, "\x1f")
}
