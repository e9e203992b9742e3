package postgresdb

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ApplyCursorPagination adds a keyset condition comparing the
// (orderField, pkField) tuple against the cursor values, e.g.
// ("due_date", "task_id") > (@cursor_order_value, @cursor_pk).
func ApplyCursorPagination[K any, O any](
	buf *bytes.Buffer,
	data pgx.NamedArgs,
	orderField string,
	pkField string,
	orderValue *O,
	keyValue *K,
	direction string,
	forPrevious bool,
) error {
	if keyValue == nil || orderValue == nil {
		return nil
	}

	quotedOrder, err := QuoteIdentifier(orderField)
	if err != nil {
		return fmt.Errorf("invalid order field: %w", err)
	}
	quotedPK, err := QuoteIdentifier(pkField)
	if err != nil {
		return fmt.Errorf("invalid pk field: %w", err)
	}

	if strings.Contains(buf.String(), "WHERE") {
		buf.WriteString(" AND ")
	} else {
		buf.WriteString(" WHERE ")
	}

	fmt.Fprintf(buf, "(%s, %s) %s (@cursor_order_value, @cursor_pk)", quotedOrder, quotedPK, determineOperator(direction, forPrevious))

	data["cursor_order_value"] = *orderValue
	data["cursor_pk"] = *keyValue

	return nil
}

func determineOperator(direction string, forPrevious bool) string {
	ascending := direction != DESC
	if ascending != forPrevious {
		return ">"
	}
	return "<"
}
