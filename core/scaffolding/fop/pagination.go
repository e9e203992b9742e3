package fop

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ErrInvalidPageLimit is returned for a limit outside 1..MaxPageLimit.
var ErrInvalidPageLimit = errors.New("invalid page limit")

// PageStringCursor is one page request: its size and the token of the row
// it follows.
type PageStringCursor struct {
	Limit  int
	Cursor string
}

// PageInfoStringCursor describes the page a list call returned.
type PageInfoStringCursor struct {
	HasPrev        bool   `json:"hasPrev,omitempty"`
	HasNext        bool   `json:"hasNext,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	PreviousCursor string `json:"previousCursor,omitempty"`
	NextCursor     string `json:"nextCursor,omitempty"`
	PageTotal      int    `json:"pageTotal,omitempty"`
}

// ParsePageStringCursor reads the limit and cursor query values. An empty
// limit means DefaultPageLimit.
func ParsePageStringCursor(pageLimit string, cursor string) (PageStringCursor, error) {
	page := PageStringCursor{Limit: DefaultPageLimit, Cursor: cursor}
	if pageLimit == "" {
		return page, nil
	}

	limit, err := strconv.Atoi(pageLimit)
	switch {
	case err != nil:
		return PageStringCursor{}, fmt.Errorf("%w: %q is not a number", ErrInvalidPageLimit, pageLimit)
	case limit < 1 || limit > MaxPageLimit:
		return PageStringCursor{}, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidPageLimit, MaxPageLimit)
	}
	page.Limit = limit
	return page, nil
}
