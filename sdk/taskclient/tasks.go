package taskclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Priorities accepted by the API.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Task is a task as returned by the API. DueDate is YYYY-MM-DD or empty.
type Task struct {
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags"`
	DueDate     string    `json:"due_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTaskInput is the body of a create call.
type CreateTaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
}

// UpdateTaskInput is the body of an update call. Nil fields are left as
// they are; an empty DueDate clears the due date.
type UpdateTaskInput struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
}

// ListParams narrows a list call. Zero values are omitted.
type ListParams struct {
	Limit      int
	Cursor     string
	Order      string
	Completed  *bool
	Priority   string
	Tag        string
	SearchTerm string
}

func (p ListParams) query() string {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Cursor != "" {
		q.Set("cursor", p.Cursor)
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.Completed != nil {
		q.Set("completed", strconv.FormatBool(*p.Completed))
	}
	if p.Priority != "" {
		q.Set("priority", p.Priority)
	}
	if p.Tag != "" {
		q.Set("tag", p.Tag)
	}
	if p.SearchTerm != "" {
		q.Set("searchTerm", p.SearchTerm)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// PageInfo describes where a page sits in the full list.
type PageInfo struct {
	HasPrev        bool    `json:"hasPrev,omitempty"`
	HasNext        bool    `json:"hasNext,omitempty"`
	Limit          int     `json:"limit,omitempty"`
	PreviousCursor *string `json:"previousCursor,omitempty"`
	NextCursor     *string `json:"nextCursor,omitempty"`
	PageTotal      int     `json:"pageTotal,omitempty"`
}

// TaskPage is one page of a list call.
type TaskPage struct {
	Records  []Task   `json:"records"`
	PageInfo PageInfo `json:"pageInfo"`
}

type recordResponse struct {
	Record Task `json:"record"`
}

type completeRequest struct {
	Completed bool `json:"completed"`
}

func tasksPath(userID string) string {
	return "/users/" + url.PathEscape(userID) + "/tasks"
}

func taskPath(userID, taskID string) string {
	return tasksPath(userID) + "/" + url.PathEscape(taskID)
}

// ListTasks returns one page of the user's tasks.
func (c *Client) ListTasks(ctx context.Context, token, userID string, params ListParams) (TaskPage, error) {
	var page TaskPage
	if err := c.do(ctx, http.MethodGet, tasksPath(userID)+params.query(), token, nil, &page); err != nil {
		return TaskPage{}, err
	}
	return page, nil
}

// ListAllTasks follows the cursor until every matching task is loaded.
func (c *Client) ListAllTasks(ctx context.Context, token, userID string, params ListParams) ([]Task, error) {
	tasks := make([]Task, 0)
	for {
		page, err := c.ListTasks(ctx, token, userID, params)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, page.Records...)

		if !page.PageInfo.HasNext || page.PageInfo.NextCursor == nil || *page.PageInfo.NextCursor == "" {
			return tasks, nil
		}
		params.Cursor = *page.PageInfo.NextCursor
	}
}

// GetTask loads one task.
func (c *Client) GetTask(ctx context.Context, token, userID, taskID string) (Task, error) {
	var resp recordResponse
	if err := c.do(ctx, http.MethodGet, taskPath(userID, taskID), token, nil, &resp); err != nil {
		return Task{}, err
	}
	return resp.Record, nil
}

// CreateTask adds a task for the user.
func (c *Client) CreateTask(ctx context.Context, token, userID string, input CreateTaskInput) (Task, error) {
	var resp recordResponse
	if err := c.do(ctx, http.MethodPost, tasksPath(userID), token, input, &resp); err != nil {
		return Task{}, err
	}
	return resp.Record, nil
}

// UpdateTask changes the given fields of a task.
func (c *Client) UpdateTask(ctx context.Context, token, userID, taskID string, input UpdateTaskInput) (Task, error) {
	var resp recordResponse
	if err := c.do(ctx, http.MethodPut, taskPath(userID, taskID), token, input, &resp); err != nil {
		return Task{}, err
	}
	return resp.Record, nil
}

// ToggleComplete sets the completion flag of a task.
func (c *Client) ToggleComplete(ctx context.Context, token, userID, taskID string, completed bool) (Task, error) {
	var resp recordResponse
	if err := c.do(ctx, http.MethodPatch, taskPath(userID, taskID)+"/complete", token, completeRequest{Completed: completed}, &resp); err != nil {
		return Task{}, err
	}
	return resp.Record, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, token, userID, taskID string) error {
	return c.do(ctx, http.MethodDelete, taskPath(userID, taskID), token, nil, nil)
}
