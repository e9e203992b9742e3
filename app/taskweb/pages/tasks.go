package pages

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/querycache"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
	"github.com/jrazmi/taskdeck/sdk/validation"
)

// Messages shown by the task pages.
const (
	MsgTitleRequired   = "Title is required"
	MsgInvalidPriority = "Priority must be High, Medium or Low"
	MsgInvalidDueDate  = "Due date is not a valid date"
	MsgCreateFailed    = "Failed to create task. Please try again."
	MsgUpdateFailed    = "Failed to update task. Please try again."
	MsgDeleteFailed    = "Failed to delete task. Please try again."
)

// Sort orders accepted by the task list.
const (
	SortDueDate  = "due_date"
	SortPriority = "priority"
	SortTitle    = "title"
)

var priorities = []string{taskclient.PriorityHigh, taskclient.PriorityMedium, taskclient.PriorityLow}

// ViewOptions narrows and orders the cached task list.
type ViewOptions struct {
	Completed string
	Priority  string
	Tag       string
	Query     string
	Sort      string
}

func parseViewOptions(q url.Values) ViewOptions {
	opts := ViewOptions{
		Priority: q.Get("priority"),
		Tag:      strings.TrimSpace(q.Get("tag")),
		Query:    strings.TrimSpace(q.Get("q")),
	}
	switch c := q.Get("completed"); c {
	case "true", "false":
		opts.Completed = c
	}
	switch s := q.Get("sort"); s {
	case SortDueDate, SortPriority, SortTitle:
		opts.Sort = s
	}
	return opts
}

// Apply returns the tasks matching o in o's order. tasks is not modified.
func (o ViewOptions) Apply(tasks []taskclient.Task) []taskclient.Task {
	out := make([]taskclient.Task, 0, len(tasks))
	for _, t := range tasks {
		if o.matches(t) {
			out = append(out, t)
		}
	}

	switch o.Sort {
	case SortDueDate:
		slices.SortStableFunc(out, func(a, b taskclient.Task) int {
			switch {
			case a.DueDate == b.DueDate:
				return 0
			case a.DueDate == "":
				return 1
			case b.DueDate == "":
				return -1
			}
			return strings.Compare(a.DueDate, b.DueDate)
		})
	case SortPriority:
		slices.SortStableFunc(out, func(a, b taskclient.Task) int {
			return cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority))
		})
	case SortTitle:
		slices.SortStableFunc(out, func(a, b taskclient.Task) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	}
	return out
}

func (o ViewOptions) matches(t taskclient.Task) bool {
	if o.Completed != "" && (o.Completed == "true") != t.Completed {
		return false
	}
	if o.Priority != "" && !strings.EqualFold(o.Priority, t.Priority) {
		return false
	}
	if o.Tag != "" && !slices.ContainsFunc(t.Tags, func(tag string) bool { return strings.EqualFold(tag, o.Tag) }) {
		return false
	}
	if o.Query != "" {
		q := strings.ToLower(o.Query)
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

func priorityRank(p string) int {
	switch p {
	case taskclient.PriorityHigh:
		return 0
	case taskclient.PriorityMedium:
		return 1
	case taskclient.PriorityLow:
		return 2
	default:
		return 3
	}
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// taskDraft is the create and edit form as typed.
type taskDraft struct {
	Title       string
	Description string
	Priority    string
	Tags        string
	DueDate     string
}

func draftFromForm(form url.Values) taskDraft {
	return taskDraft{
		Title:       strings.TrimSpace(form.Get("title")),
		Description: strings.TrimSpace(form.Get("description")),
		Priority:    form.Get("priority"),
		Tags:        form.Get("tags"),
		DueDate:     strings.TrimSpace(form.Get("due_date")),
	}
}

func draftFromTask(t taskclient.Task) taskDraft {
	return taskDraft{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Tags:        joinTags(t.Tags),
		DueDate:     t.DueDate,
	}
}

// validate checks the draft and normalises its due date to YYYY-MM-DD.
func (d *taskDraft) validate() string {
	if d.Title == "" {
		return MsgTitleRequired
	}
	if d.Priority != "" && !slices.Contains(priorities, d.Priority) {
		return MsgInvalidPriority
	}
	if d.DueDate != "" {
		due, err := validation.ParseOptionalDate(d.DueDate)
		if err != nil {
			return MsgInvalidDueDate
		}
		d.DueDate = validation.FormatDatePtrToString(due)
	}
	return ""
}

func (d taskDraft) createInput() taskclient.CreateTaskInput {
	return taskclient.CreateTaskInput{
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Tags:        validation.SplitTags(d.Tags),
		DueDate:     d.DueDate,
	}
}

func (d taskDraft) updateInput() taskclient.UpdateTaskInput {
	tags := validation.SplitTags(d.Tags)
	in := taskclient.UpdateTaskInput{
		Title:       &d.Title,
		Description: &d.Description,
		Tags:        &tags,
		DueDate:     &d.DueDate,
	}
	if d.Priority != "" {
		in.Priority = &d.Priority
	}
	return in
}

// TaskItem is one row of the task list.
type TaskItem struct {
	Task       taskclient.Task
	Pending    bool
	Confirming bool
	Error      string
}

// listState is what a task list render shows besides the tasks.
type listState struct {
	Options     ViewOptions
	Confirm     string
	DeleteError string
	CreateError string
	Draft       taskDraft
}

type listView struct {
	Items       []TaskItem
	Options     ViewOptions
	Draft       taskDraft
	CreateError string
	Priorities  []string
	Total       int
	Open        int
}

func (a *App) fetchTasks(ctx context.Context, v *viewer) ([]taskclient.Task, error) {
	return querycache.FetchQuery(ctx, v.state.Cache, tasksKey, func(ctx context.Context) ([]taskclient.Task, error) {
		return a.api.ListAllTasks(ctx, v.token, v.userID(), taskclient.ListParams{})
	})
}

// invalidate refetches every task query of v. A failed refetch leaves the
// entries stale so the next page load tries again.
func (a *App) invalidate(ctx context.Context, v *viewer) {
	if err := v.state.Cache.InvalidateQueries(ctx, tasksKey); err != nil {
		a.log.WarnContext(ctx, "refetch tasks", "user_id", v.userID(), "err", err)
	}
}

func (a *App) renderList(ctx context.Context, v *viewer, tasks []taskclient.Task, st listState, status int) web.Encoder {
	shown := st.Options.Apply(tasks)

	items := make([]TaskItem, len(shown))
	for i, t := range shown {
		items[i] = TaskItem{
			Task:       t,
			Pending:    v.state.Pending(t.TaskID),
			Confirming: t.TaskID == st.Confirm,
		}
		if items[i].Confirming {
			items[i].Error = st.DeleteError
		}
	}

	open := 0
	for _, t := range tasks {
		if !t.Completed {
			open++
		}
	}

	return a.render(ctx, "tasks", status, Page{
		Title: "Tasks",
		User:  v.user(),
		Data: listView{
			Items:       items,
			Options:     st.Options,
			Draft:       st.Draft,
			CreateError: st.CreateError,
			Priorities:  priorities,
			Total:       len(tasks),
			Open:        open,
		},
	})
}

func (a *App) httpTaskList(ctx context.Context, r *http.Request) web.Encoder {
	v := getViewer(ctx)

	tasks, err := a.fetchTasks(ctx, v)
	if err != nil {
		return a.renderError(ctx, v.user(), err)
	}

	q := r.URL.Query()
	return a.renderList(ctx, v, tasks, listState{
		Options: parseViewOptions(q),
		Confirm: q.Get("confirm"),
	}, http.StatusOK)
}

func (a *App) httpCreateTask(ctx context.Context, r *http.Request) web.Encoder {
	v := getViewer(ctx)
	if err := r.ParseForm(); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	draft := draftFromForm(r.PostForm)
	if msg := draft.validate(); msg != "" {
		return a.rerenderList(ctx, v, listState{Draft: draft, CreateError: msg}, http.StatusUnprocessableEntity)
	}

	task, err := a.api.CreateTask(ctx, v.token, v.userID(), draft.createInput())
	if err != nil {
		a.log.WarnContext(ctx, "create task", "user_id", v.userID(), "err", err)
		return a.rerenderList(ctx, v, listState{Draft: draft, CreateError: remoteMessage(err, MsgCreateFailed)}, http.StatusBadGateway)
	}

	a.log.InfoContext(ctx, "task created", "user_id", v.userID(), "task_id", task.TaskID)
	a.invalidate(ctx, v)
	return web.NewRedirect("/tasks")
}

// rerenderList shows the list again after a failed action.
func (a *App) rerenderList(ctx context.Context, v *viewer, st listState, status int) web.Encoder {
	tasks, err := a.fetchTasks(ctx, v)
	if err != nil {
		return a.renderError(ctx, v.user(), err)
	}
	return a.renderList(ctx, v, tasks, st, status)
}

type editView struct {
	TaskID     string
	Draft      taskDraft
	Error      string
	Priorities []string
}

func (a *App) httpEditTask(ctx context.Context, r *http.Request) web.Encoder {
	v := getViewer(ctx)
	taskID := web.Param(r, "task_id")

	task, err := querycache.FetchQuery(ctx, v.state.Cache, taskKey(taskID), func(ctx context.Context) (taskclient.Task, error) {
		return a.api.GetTask(ctx, v.token, v.userID(), taskID)
	})
	if err != nil {
		return a.renderError(ctx, v.user(), err)
	}

	return a.renderEdit(ctx, v, editView{TaskID: taskID, Draft: draftFromTask(task)}, http.StatusOK)
}

func (a *App) httpUpdateTask(ctx context.Context, r *http.Request) web.Encoder {
	v := getViewer(ctx)
	taskID := web.Param(r, "task_id")
	if err := r.ParseForm(); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	draft := draftFromForm(r.PostForm)
	if msg := draft.validate(); msg != "" {
		return a.renderEdit(ctx, v, editView{TaskID: taskID, Draft: draft, Error: msg}, http.StatusUnprocessableEntity)
	}

	if _, err := a.api.UpdateTask(ctx, v.token, v.userID(), taskID, draft.updateInput()); err != nil {
		if taskclient.IsNotFound(err) {
			return a.renderError(ctx, v.user(), err)
		}
		a.log.WarnContext(ctx, "update task", "user_id", v.userID(), "task_id", taskID, "err", err)
		return a.renderEdit(ctx, v, editView{TaskID: taskID, Draft: draft, Error: remoteMessage(err, MsgUpdateFailed)}, http.StatusBadGateway)
	}

	a.invalidate(ctx, v)
	return web.NewRedirect("/tasks")
}

func (a *App) renderEdit(ctx context.Context, v *viewer, view editView, status int) web.Encoder {
	view.Priorities = priorities
	return a.render(ctx, "task_edit", status, Page{
		Title: "Edit task",
		User:  v.user(),
		Data:  view,
	})
}

// remoteMessage returns the API's own wording for a rejected request, or
// fallback when the API failed or could not be reached.
func remoteMessage(err error, fallback string) string {
	var apiErr *taskclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
