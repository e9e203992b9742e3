package authcasebridge

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/mid"
	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

type bridge struct {
	authUsecase *authcase.Usecase
}

func newBridge(authUsecase *authcase.Usecase) *bridge {
	return &bridge{
		authUsecase: authUsecase,
	}
}

func (b *bridge) httpSignUp(ctx context.Context, r *http.Request) web.Encoder {
	var input SignUpInput
	if err := web.Decode(r, &input); err != nil {
		return errs.Newf(errs.InvalidArgument, "decode: %s", err)
	}

	session, err := b.authUsecase.SignUp(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return toError(err)
	}

	return web.NewJSONResponseWithStatus(MarshalToBridge(session), http.StatusCreated)
}

func (b *bridge) httpSignIn(ctx context.Context, r *http.Request) web.Encoder {
	var input SignInInput
	if err := web.Decode(r, &input); err != nil {
		return errs.Newf(errs.InvalidArgument, "decode: %s", err)
	}

	session, err := b.authUsecase.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		return toError(err)
	}

	return MarshalToBridge(session)
}

func (b *bridge) httpSignOut(ctx context.Context, r *http.Request) web.Encoder {
	p, err := mid.GetPrincipal(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := b.authUsecase.SignOut(ctx, p); err != nil {
		return toError(err)
	}
	return web.NewNoContent()
}

func (b *bridge) httpSession(ctx context.Context, r *http.Request) web.Encoder {
	p, err := mid.GetPrincipal(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	session, err := b.authUsecase.Session(ctx, p)
	if err != nil {
		return toError(err)
	}
	return MarshalToBridge(session)
}

func toError(err error) *errs.Error {
	switch {
	case errors.Is(err, authcase.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), authcase.ErrInvalidInput.Error()+": ")
		return errs.Newf(errs.InvalidArgument, "%s", msg)
	case errors.Is(err, authcase.ErrDuplicateAccount):
		return errs.New(errs.DuplicateAccount, err)
	case errors.Is(err, authcase.ErrAccountNotFound):
		return errs.New(errs.AccountNotFound, err)
	case errors.Is(err, authcase.ErrInvalidCredentials):
		return errs.New(errs.InvalidCredentials, err)
	case errors.Is(err, authcase.ErrUnauthenticated):
		return errs.New(errs.Unauthenticated, err)
	default:
		return errs.New(errs.InternalOnlyLog, err)
	}
}
