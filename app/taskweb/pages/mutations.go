package pages

import (
	"context"
	"net/http"

	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/querycache"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

// flipTask returns a copy of tasks with taskID's completion inverted, and
// the new completion value.
func flipTask(tasks []taskclient.Task, taskID string) ([]taskclient.Task, bool, bool) {
	next := make([]taskclient.Task, len(tasks))
	copy(next, tasks)

	for i := range next {
		if next[i].TaskID == taskID {
			next[i].Completed = !next[i].Completed
			return next, next[i].Completed, true
		}
	}
	return nil, false, false
}

// httpToggleTask shows the flipped task at once and confirms it with the
// API in the background. A failed toggle restores the list as it was.
func (a *App) httpToggleTask(ctx context.Context, r *http.Request) web.Encoder {
	v := getViewer(ctx)
	taskID := web.Param(r, "task_id")

	if v.state.Pending(taskID) {
		return web.NewRedirect("/tasks")
	}

	if _, err := a.fetchTasks(ctx, v); err != nil {
		return a.renderError(ctx, v.user(), err)
	}

	txn, err := querycache.BeginTransaction[[]taskclient.Task](ctx, v.state.Cache, tasksKey)
	if err != nil {
		return a.renderError(ctx, v.user(), err)
	}

	prev, _ := txn.Previous()
	next, completed, found := flipTask(prev, taskID)
	if !found {
		txn.Rollback()
		return web.NewRedirect("/tasks")
	}
	if err := txn.Apply(next); err != nil {
		txn.Rollback()
		return a.renderError(ctx, v.user(), err)
	}

	v.state.setPending(taskID, true)
	a.inflight.Add(1)

	go func() {
		defer a.inflight.Done()
		defer v.state.setPending(taskID, false)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.settings.MutationTimeout)
		defer cancel()

		_, mutErr := a.api.ToggleComplete(ctx, v.token, v.userID(), taskID, completed)
		if mutErr != nil {
			a.log.WarnContext(ctx, "toggle task rolled back", "user_id", v.userID(), "task_id", taskID, "err", mutErr)
		}
		if err := txn.Settle(ctx, mutErr); err != nil && mutErr == nil {
			a.log.WarnContext(ctx, "refetch tasks", "user_id", v.userID(), "err", err)
		}
	}()

	return web.NewRedirect("/tasks")
}

// httpDeleteTask removes a task once the user has confirmed. Nothing is
// removed from the cache until the API agrees.
func (a *App) httpDeleteTask(ctx context.Context, r *http.Request) web.Encoder {
	v := getViewer(ctx)
	taskID := web.Param(r, "task_id")

	if v.state.Pending(taskID) {
		return web.NewRedirect("/tasks")
	}

	if err := a.api.DeleteTask(ctx, v.token, v.userID(), taskID); err != nil && !taskclient.IsNotFound(err) {
		a.log.WarnContext(ctx, "delete task", "user_id", v.userID(), "task_id", taskID, "err", err)
		return a.rerenderList(ctx, v, listState{Confirm: taskID, DeleteError: MsgDeleteFailed}, http.StatusBadGateway)
	}

	a.log.InfoContext(ctx, "task deleted", "user_id", v.userID(), "task_id", taskID)
	v.state.Cache.RemoveQuery(taskKey(taskID))
	a.invalidate(ctx, v)
	return web.NewRedirect("/tasks")
}
