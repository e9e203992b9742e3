package postgresdb

import (
	"bytes"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
)

// Set of directions for data ordering.
const (
	ASC  = "ASC"
	DESC = "DESC"
)

// StringCursorConfig describes keyset pagination over a string primary key.
type StringCursorConfig struct {
	Cursor     string
	OrderField string
	PKField    string
	Direction  string
	Limit      int
}

// ApplyStringCursorPagination decodes a page token made by fop.Cursor and
// adds the keyset condition that resumes after it.
func ApplyStringCursorPagination[OrderValue any](buf *bytes.Buffer, data pgx.NamedArgs, config StringCursorConfig, forPrevious bool) error {
	cursor, err := fop.DecodeCursor[string, OrderValue](config.Cursor)
	if err != nil || cursor == nil {
		return err
	}

	return ApplyCursorPagination(buf, data,
		config.OrderField, config.PKField,
		&cursor.OrderValue, &cursor.PK,
		config.Direction, forPrevious,
	)
}

// AddOrderByClause adds ORDER BY clause to the query buffer, with the primary
// key as tie-breaker.
func AddOrderByClause(buf *bytes.Buffer, orderField, pkField, direction string, forPrevious bool) error {
	quotedOrderField, err := QuoteIdentifier(orderField)
	if err != nil {
		return fmt.Errorf("invalid order field name: %w", err)
	}
	quotedPKField, err := QuoteIdentifier(pkField)
	if err != nil {
		return fmt.Errorf("invalid pk field name: %w", err)
	}

	actualDirection := direction
	if forPrevious {
		actualDirection = flip(direction)
	}

	fmt.Fprintf(buf, " ORDER BY %s %s", quotedOrderField, actualDirection)
	if orderField != pkField {
		fmt.Fprintf(buf, ", %s %s", quotedPKField, actualDirection)
	}

	return nil
}

// AddLimitClause adds LIMIT clause to the query buffer
func AddLimitClause(limit int, data pgx.NamedArgs, buf *bytes.Buffer) {
	buf.WriteString(" LIMIT @limit")
	data["limit"] = limit
}

func flip(direction string) string {
	if direction == ASC {
		return DESC
	}
	return ASC
}
