package tasksrepobridge

import (
	"errors"
	"strings"
)

// Task is the wire form of a task. DueDate is YYYY-MM-DD or empty.
type Task struct {
	TaskID      string   `json:"task_id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Completed   bool     `json:"completed"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	DueDate     string   `json:"due_date,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type CreateTaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	DueDate     string   `json:"due_date"`
}

func (c CreateTaskInput) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// UpdateTaskInput changes the non-nil fields. An empty DueDate clears the
// due date and an empty Tags list clears the tags.
type UpdateTaskInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Completed   *bool     `json:"completed"`
	Priority    *string   `json:"priority"`
	Tags        *[]string `json:"tags"`
	DueDate     *string   `json:"due_date"`
}

type CompleteInput struct {
	Completed *bool `json:"completed"`
}

func (c CompleteInput) Validate() error {
	if c.Completed == nil {
		return errors.New("completed is required")
	}
	return nil
}
