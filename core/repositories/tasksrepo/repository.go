package tasksrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jrazmi/taskdeck/core/repositories"
	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/jrazmi/taskdeck/sdk/validation"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidPriority = errors.New("priority must be High, Medium or Low")
)

// Storer is the persistence the task repository needs. Every call is scoped
// to the owning user.
type Storer interface {
	Create(ctx context.Context, task Task) (Task, error)
	Get(ctx context.Context, userID, taskID string) (Task, error)
	// List returns up to page.Limit rows after page.Cursor.
	List(ctx context.Context, filter QueryFilter, orderBy fop.By, page fop.PageStringCursor) ([]Task, error)
	Update(ctx context.Context, userID, taskID string, update UpdateTask, at time.Time) (Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

// Repository provides access to task storage.
type Repository struct {
	log    *logger.Logger
	storer Storer
	now    func() time.Time
}

func NewRepository(log *logger.Logger, storer Storer) *Repository {
	return &Repository{
		log:    log,
		storer: storer,
		now:    time.Now,
	}
}

// Create validates and stores a new open task for userID.
func (r *Repository) Create(ctx context.Context, userID string, input CreateTask) (Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Task{}, ErrTitleRequired
	}

	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return Task{}, ErrInvalidPriority
	}

	now := r.now().UTC()
	task, err := r.storer.Create(ctx, Task{
		TaskID:      uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		Tags:        validation.SplitTags(strings.Join(input.Tags, ",")),
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}

	r.log.InfoContext(ctx, "created task", "task_id", task.TaskID, "user_id", userID)
	return task, nil
}

func (r *Repository) Get(ctx context.Context, userID, taskID string) (Task, error) {
	task, err := r.storer.Get(ctx, userID, taskID)
	if err != nil {
		return Task{}, mapNotFound(err, "get task")
	}
	return task, nil
}

// List returns one page of the user's tasks and the page info needed to
// fetch the next one.
func (r *Repository) List(ctx context.Context, filter QueryFilter, orderBy fop.By, page fop.PageStringCursor) ([]Task, fop.PageInfoStringCursor, error) {
	if page.Limit <= 0 {
		page.Limit = fop.DefaultPageLimit
	}

	// One extra row tells whether another page follows.
	probe := page
	probe.Limit = page.Limit + 1
	tasks, err := r.storer.List(ctx, filter, orderBy, probe)
	if err != nil {
		return nil, fop.PageInfoStringCursor{}, fmt.Errorf("list tasks: %w", err)
	}

	info := fop.PageInfoStringCursor{
		HasPrev: page.Cursor != "",
		Limit:   page.Limit,
	}
	if len(tasks) > page.Limit {
		tasks = tasks[:page.Limit]
		info.HasNext = true
		info.NextCursor, err = encodeCursor(tasks[len(tasks)-1], orderBy)
		if err != nil {
			return nil, fop.PageInfoStringCursor{}, fmt.Errorf("encode cursor: %w", err)
		}
	}
	info.PageTotal = len(tasks)

	return tasks, info, nil
}

// Update applies the non-nil fields of update.
func (r *Repository) Update(ctx context.Context, userID, taskID string, update UpdateTask) (Task, error) {
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return Task{}, ErrTitleRequired
		}
		update.Title = &title
	}
	if update.Priority != nil && !ValidPriority(*update.Priority) {
		return Task{}, ErrInvalidPriority
	}
	if update.Tags != nil {
		update.Tags = validation.SplitTags(strings.Join(update.Tags, ","))
	}

	task, err := r.storer.Update(ctx, userID, taskID, update, r.now().UTC())
	if err != nil {
		return Task{}, mapNotFound(err, "update task")
	}
	return task, nil
}

// ToggleComplete sets the completion flag of a task.
func (r *Repository) ToggleComplete(ctx context.Context, userID, taskID string, completed bool) (Task, error) {
	task, err := r.Update(ctx, userID, taskID, UpdateTask{Completed: &completed})
	if err != nil {
		return Task{}, err
	}
	r.log.InfoContext(ctx, "set task completion", "task_id", taskID, "completed", completed)
	return task, nil
}

func (r *Repository) Delete(ctx context.Context, userID, taskID string) error {
	if err := r.storer.Delete(ctx, userID, taskID); err != nil {
		return mapNotFound(err, "delete task")
	}
	r.log.InfoContext(ctx, "deleted task", "task_id", taskID, "user_id", userID)
	return nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTaskNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
