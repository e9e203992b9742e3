package taskspgxstore

import (
	"bytes"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
	"github.com/jrazmi/taskdeck/infrastructure/postgresdb"
)

// applyFilter writes the WHERE clause for filter. The owner condition is
// always present.
func applyFilter(filter tasksrepo.QueryFilter, data pgx.NamedArgs, buf *bytes.Buffer) {
	wc := []string{"user_id = @user_id"}
	data["user_id"] = filter.UserID

	if filter.Completed != nil {
		wc = append(wc, "completed = @completed")
		data["completed"] = *filter.Completed
	}

	if filter.Priority != nil {
		wc = append(wc, "priority = @priority")
		data["priority"] = *filter.Priority
	}

	if filter.Tag != nil {
		wc = append(wc, "@tag = ANY(tags)")
		data["tag"] = *filter.Tag
	}

	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		wc = append(wc, "(title ILIKE @search_term OR description ILIKE @search_term)")
		data["search_term"] = "%" + escapeLike(strings.TrimSpace(*filter.SearchTerm)) + "%"
	}

	buf.WriteString(" WHERE ")
	buf.WriteString(strings.Join(wc, " AND "))
}

// applyCursor decodes the cursor with the Go type of the sort column.
func applyCursor(buf *bytes.Buffer, data pgx.NamedArgs, orderBy fop.By, cursor string) error {
	cfg := postgresdb.StringCursorConfig{
		Cursor:     cursor,
		OrderField: orderBy.Field,
		PKField:    "task_id",
		Direction:  orderBy.Direction,
	}

	switch orderBy.Field {
	case tasksrepo.OrderByCreatedAt, tasksrepo.OrderByDueDate:
		return postgresdb.ApplyStringCursorPagination[time.Time](buf, data, cfg, false)
	case tasksrepo.OrderByPriority:
		return postgresdb.ApplyStringCursorPagination[int](buf, data, cfg, false)
	default:
		return postgresdb.ApplyStringCursorPagination[string](buf, data, cfg, false)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
