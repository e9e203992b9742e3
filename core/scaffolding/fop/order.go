package fop

import (
	"fmt"
	"strings"
)

const (
	ASC  = "ASC"
	DESC = "DESC"
)

// By names a column and a direction to order a list by.
type By struct {
	Field     string
	Direction string
}

// NewBy constructs a By, defaulting the direction to ASC.
func NewBy(field string, direction string) By {
	if direction != DESC {
		direction = ASC
	}
	return By{Field: field, Direction: direction}
}

// ParseOrder maps an order string onto a By. It accepts "field", "-field"
// (descending) and "field,desc". fieldMappings maps public names to columns.
func ParseOrder(fieldMappings map[string]string, orderBy string, defaultOrder By) (By, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return defaultOrder, nil
	}

	direction := ASC
	name, dir, hasDir := strings.Cut(orderBy, ",")
	if strings.HasPrefix(name, "-") {
		name = strings.TrimPrefix(name, "-")
		direction = DESC
	}
	if hasDir {
		switch strings.ToUpper(strings.TrimSpace(dir)) {
		case ASC:
			direction = ASC
		case DESC:
			direction = DESC
		default:
			return By{}, fmt.Errorf("unknown direction: %s", dir)
		}
	}

	field, ok := fieldMappings[strings.TrimSpace(name)]
	if !ok {
		return By{}, fmt.Errorf("unknown order: %s", name)
	}

	return NewBy(field, direction), nil
}
