package tasksrepo

import (
	"time"

	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
)

// Sortable columns.
const (
	OrderByCreatedAt = "created_at"
	OrderByDueDate   = "due_sort"
	OrderByPriority  = "priority_rank"
	OrderByTitle     = "title"
)

// OrderByFields maps public order names to sortable columns.
var OrderByFields = map[string]string{
	"created_at": OrderByCreatedAt,
	"due_date":   OrderByDueDate,
	"priority":   OrderByPriority,
	"title":      OrderByTitle,
}

// DefaultOrderBy lists the newest task first.
var DefaultOrderBy = fop.NewBy(OrderByCreatedAt, fop.DESC)

// undated is the due_sort value of a task without a due date.
var undated = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

var priorityRank = map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}

// orderValue is the value of task in the sort column, as stored.
func orderValue(task Task, field string) any {
	switch field {
	case OrderByDueDate:
		if task.DueDate == nil {
			return undated
		}
		return task.DueDate.UTC()
	case OrderByPriority:
		return priorityRank[task.Priority]
	case OrderByTitle:
		return task.Title
	default:
		return task.CreatedAt
	}
}

// encodeCursor marks task as the last row of a page.
func encodeCursor(task Task, orderBy fop.By) (string, error) {
	return fop.Cursor[string, any]{OrderValue: orderValue(task, orderBy.Field), PK: task.TaskID}.Encode()
}
