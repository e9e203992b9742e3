package tasksrepobridge

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/fopbridge"
	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

func (b *bridge) httpList(ctx context.Context, r *http.Request) web.Encoder {
	qp := parseQueryParams(r)

	page, err := fop.ParsePageStringCursor(qp.Limit, qp.Cursor)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	filter, err := parseFilter(web.Param(r, "user_id"), qp)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	orderBy, err := parseOrderBy(qp.Order)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	tasks, info, err := b.tasksRepository.List(ctx, filter, orderBy, page)
	if err != nil {
		return toError(err)
	}

	return fopbridge.NewPaginatedResultStringCursor(MarshalListToBridge(tasks), info)
}

func (b *bridge) httpGetByID(ctx context.Context, r *http.Request) web.Encoder {
	task, err := b.tasksRepository.Get(ctx, web.Param(r, "user_id"), web.Param(r, "task_id"))
	if err != nil {
		return toError(err)
	}
	return fopbridge.NewRecordResponse(MarshalToBridge(task))
}

func (b *bridge) httpCreate(ctx context.Context, r *http.Request) web.Encoder {
	var input CreateTaskInput
	if err := web.Decode(r, &input); err != nil {
		return errs.Newf(errs.InvalidArgument, "decode: %s", err)
	}

	create, err := MarshalCreateToRepository(input)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	task, err := b.tasksRepository.Create(ctx, web.Param(r, "user_id"), create)
	if err != nil {
		return toError(err)
	}

	return web.NewJSONResponseWithStatus(fopbridge.NewRecordResponse(MarshalToBridge(task)), http.StatusCreated)
}

func (b *bridge) httpUpdate(ctx context.Context, r *http.Request) web.Encoder {
	var input UpdateTaskInput
	if err := web.Decode(r, &input); err != nil {
		return errs.Newf(errs.InvalidArgument, "decode: %s", err)
	}

	update, err := MarshalUpdateToRepository(input)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	task, err := b.tasksRepository.Update(ctx, web.Param(r, "user_id"), web.Param(r, "task_id"), update)
	if err != nil {
		return toError(err)
	}
	return fopbridge.NewRecordResponse(MarshalToBridge(task))
}

func (b *bridge) httpToggleComplete(ctx context.Context, r *http.Request) web.Encoder {
	var input CompleteInput
	if err := web.Decode(r, &input); err != nil {
		return errs.Newf(errs.InvalidArgument, "decode: %s", err)
	}

	task, err := b.tasksRepository.ToggleComplete(ctx, web.Param(r, "user_id"), web.Param(r, "task_id"), *input.Completed)
	if err != nil {
		return toError(err)
	}
	return fopbridge.NewRecordResponse(MarshalToBridge(task))
}

func (b *bridge) httpDelete(ctx context.Context, r *http.Request) web.Encoder {
	if err := b.tasksRepository.Delete(ctx, web.Param(r, "user_id"), web.Param(r, "task_id")); err != nil {
		return toError(err)
	}
	return web.NewNoContent()
}

func toError(err error) *errs.Error {
	switch {
	case errors.Is(err, tasksrepo.ErrTaskNotFound):
		return errs.New(errs.NotFound, err)
	case errors.Is(err, tasksrepo.ErrTitleRequired), errors.Is(err, tasksrepo.ErrInvalidPriority),
		errors.Is(err, fop.ErrInvalidCursor):
		return errs.New(errs.InvalidArgument, err)
	default:
		return errs.New(errs.InternalOnlyLog, err)
	}
}
