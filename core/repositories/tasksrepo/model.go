package tasksrepo

import (
	"slices"
	"time"
)

// Task priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Priorities lists the accepted priorities, most urgent first.
var Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// ValidPriority reports whether p is one of Priorities.
func ValidPriority(p string) bool {
	return slices.Contains(Priorities, p)
}

// Task is one item on a user's list.
type Task struct {
	TaskID      string     `db:"task_id" json:"task_id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Completed   bool       `db:"completed" json:"completed"`
	Priority    string     `db:"priority" json:"priority"`
	Tags        []string   `db:"tags" json:"tags"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateTask contains fields for creating a new task.
type CreateTask struct {
	Title       string
	Description *string
	Priority    string
	Tags        []string
	DueDate     *time.Time
}

// UpdateTask holds the fields to change. Nil leaves a field as it is; a nil
// Tags slice keeps the tags and an empty one clears them.
type UpdateTask struct {
	Title        *string
	Description  *string
	Completed    *bool
	Priority     *string
	Tags         []string
	DueDate      *time.Time
	ClearDueDate bool
}

// QueryFilter narrows a user's task list.
type QueryFilter struct {
	UserID     string
	Completed  *bool
	Priority   *string
	Tag        *string
	SearchTerm *string
}
