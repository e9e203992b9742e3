package tasksrepobridge

import (
	"fmt"
	"time"

	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/sdk/validation"
)

func MarshalToBridge(task tasksrepo.Task) Task {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}

	return Task{
		TaskID:      task.TaskID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: validation.StringPtrValue(task.Description),
		Completed:   task.Completed,
		Priority:    task.Priority,
		Tags:        tags,
		DueDate:     validation.FormatDatePtrToString(task.DueDate),
		CreatedAt:   task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// MarshalListToBridge converts a list of core models to bridge models
func MarshalListToBridge(tasks []tasksrepo.Task) []Task {
	bridgeTasks := make([]Task, len(tasks))
	for i, task := range tasks {
		bridgeTasks[i] = MarshalToBridge(task)
	}
	return bridgeTasks
}

func MarshalCreateToRepository(input CreateTaskInput) (tasksrepo.CreateTask, error) {
	due, err := validation.ParseOptionalDate(input.DueDate)
	if err != nil {
		return tasksrepo.CreateTask{}, fmt.Errorf("due_date: %w", err)
	}

	return tasksrepo.CreateTask{
		Title:       input.Title,
		Description: validation.StringPtrIfNotEmpty(input.Description),
		Priority:    input.Priority,
		Tags:        input.Tags,
		DueDate:     due,
	}, nil
}

func MarshalUpdateToRepository(input UpdateTaskInput) (tasksrepo.UpdateTask, error) {
	update := tasksrepo.UpdateTask{
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
		Priority:    input.Priority,
	}

	if input.Tags != nil {
		update.Tags = *input.Tags
		if update.Tags == nil {
			update.Tags = []string{}
		}
	}

	if input.DueDate != nil {
		due, err := validation.ParseOptionalDate(*input.DueDate)
		if err != nil {
			return tasksrepo.UpdateTask{}, fmt.Errorf("due_date: %w", err)
		}
		if due == nil {
			update.ClearDueDate = true
		}
		update.DueDate = due
	}

	return update, nil
}
