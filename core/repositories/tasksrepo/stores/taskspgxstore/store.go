package taskspgxstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jrazmi/taskdeck/core/repositories"
	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
	"github.com/jrazmi/taskdeck/infrastructure/postgresdb"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

const columns = `task_id, user_id, title, description, completed, priority, tags, due_date, created_at, updated_at`

type Store struct {
	log  *logger.Logger
	pool *postgresdb.Pool
}

func NewStore(log *logger.Logger, pool *postgresdb.Pool) *Store {
	return &Store{
		log:  log,
		pool: pool,
	}
}

func (s *Store) Create(ctx context.Context, task tasksrepo.Task) (tasksrepo.Task, error) {
	query := `INSERT INTO tasks (task_id, user_id, title, description, completed, priority, tags, due_date, created_at, updated_at)
		VALUES (@task_id, @user_id, @title, @description, @completed, @priority, @tags, @due_date, @created_at, @updated_at)
		RETURNING ` + columns

	return s.one(ctx, query, pgx.NamedArgs{
		"task_id":     task.TaskID,
		"user_id":     task.UserID,
		"title":       task.Title,
		"description": task.Description,
		"completed":   task.Completed,
		"priority":    task.Priority,
		"tags":        task.Tags,
		"due_date":    task.DueDate,
		"created_at":  task.CreatedAt,
		"updated_at":  task.UpdatedAt,
	})
}

func (s *Store) Get(ctx context.Context, userID, taskID string) (tasksrepo.Task, error) {
	query := `SELECT ` + columns + ` FROM tasks WHERE user_id = @user_id AND task_id = @task_id`
	return s.one(ctx, query, pgx.NamedArgs{"user_id": userID, "task_id": taskID})
}

func (s *Store) List(ctx context.Context, filter tasksrepo.QueryFilter, orderBy fop.By, page fop.PageStringCursor) ([]tasksrepo.Task, error) {
	data := pgx.NamedArgs{}
	buf := bytes.NewBufferString(`SELECT ` + columns + ` FROM tasks`)
	applyFilter(filter, data, buf)

	if err := applyCursor(buf, data, orderBy, page.Cursor); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	if err := postgresdb.AddOrderByClause(buf, orderBy.Field, "task_id", orderBy.Direction, false); err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}
	postgresdb.AddLimitClause(page.Limit, data, buf)

	rows, err := s.pool.Query(ctx, buf.String(), data)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[tasksrepo.Task])
	if err != nil {
		return nil, storeError(err)
	}
	return tasks, nil
}

func (s *Store) Update(ctx context.Context, userID, taskID string, update tasksrepo.UpdateTask, at time.Time) (tasksrepo.Task, error) {
	query := `UPDATE tasks SET
			title = COALESCE(@title, title),
			description = COALESCE(@description, description),
			completed = COALESCE(@completed, completed),
			priority = COALESCE(@priority, priority),
			tags = COALESCE(@tags, tags),
			due_date = CASE WHEN @clear_due_date THEN NULL ELSE COALESCE(@due_date, due_date) END,
			updated_at = @updated_at
		WHERE user_id = @user_id AND task_id = @task_id
		RETURNING ` + columns

	return s.one(ctx, query, pgx.NamedArgs{
		"user_id":        userID,
		"task_id":        taskID,
		"title":          update.Title,
		"description":    update.Description,
		"completed":      update.Completed,
		"priority":       update.Priority,
		"tags":           update.Tags,
		"due_date":       update.DueDate,
		"clear_due_date": update.ClearDueDate,
		"updated_at":     at,
	})
}

func (s *Store) Delete(ctx context.Context, userID, taskID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE user_id = @user_id AND task_id = @task_id`,
		pgx.NamedArgs{"user_id": userID, "task_id": taskID})
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *Store) one(ctx context.Context, query string, args pgx.NamedArgs) (tasksrepo.Task, error) {
	rows, err := s.pool.Query(ctx, query, args)
	if err != nil {
		return tasksrepo.Task{}, storeError(err)
	}
	defer rows.Close()

	task, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[tasksrepo.Task])
	if err != nil {
		return tasksrepo.Task{}, storeError(err)
	}
	return task, nil
}

func storeError(err error) error {
	err = postgresdb.HandlePgError(err)
	switch {
	case errors.Is(err, postgresdb.ErrDBNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, postgresdb.ErrDBDuplicatedEntry):
		return repositories.ErrAlreadyExists
	}
	return err
}
