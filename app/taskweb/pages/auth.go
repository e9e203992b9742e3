package pages

import (
	"context"
	"net/http"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

const quickVariant = "quick"

type loginView struct {
	Form *LoginForm
	Next string
}

type signupView struct {
	Form  *SignupForm
	Quick bool
}

func (a *App) httpLoginPage(ctx context.Context, r *http.Request) web.Encoder {
	return a.renderLogin(ctx, NewLoginForm(a.api), safeNext(r.URL.Query().Get("next")), http.StatusOK)
}

func (a *App) httpLogin(ctx context.Context, r *http.Request) web.Encoder {
	if err := r.ParseForm(); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}
	next := safeNext(r.PostForm.Get("next"))

	form := NewLoginForm(a.api)
	session, ok := form.Submit(ctx, r.PostForm.Get("email"), r.PostForm.Get("password"))
	if !ok {
		return a.renderLogin(ctx, form, next, http.StatusUnprocessableEntity)
	}

	a.log.InfoContext(ctx, "signed in", "user_id", session.User.UserID)
	a.startSession(ctx, session)
	return web.NewRedirect(next)
}

func (a *App) renderLogin(ctx context.Context, form *LoginForm, next string, status int) web.Encoder {
	return a.render(ctx, "login", status, Page{
		Title: "Sign in",
		Data:  loginView{Form: form, Next: next},
	})
}

func (a *App) httpSignupPage(ctx context.Context, r *http.Request) web.Encoder {
	quick := r.URL.Query().Get("variant") == quickVariant
	return a.renderSignup(ctx, NewSignupForm(a.api, !quick), http.StatusOK)
}

func (a *App) httpSignup(ctx context.Context, r *http.Request) web.Encoder {
	if err := r.ParseForm(); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}
	quick := r.PostForm.Get("variant") == quickVariant

	form := NewSignupForm(a.api, !quick)
	session, ok := form.Submit(ctx, SignupInput{
		Name:            r.PostForm.Get("name"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	})
	if !ok {
		return a.renderSignup(ctx, form, http.StatusUnprocessableEntity)
	}

	a.log.InfoContext(ctx, "signed up", "user_id", session.User.UserID, "quick", quick)
	a.startSession(ctx, session)
	return web.NewRedirect("/tasks")
}

func (a *App) renderSignup(ctx context.Context, form *SignupForm, status int) web.Encoder {
	return a.render(ctx, "signup", status, Page{
		Title: "Create account",
		Data:  signupView{Form: form, Quick: !form.RequireName},
	})
}

func (a *App) httpLogout(ctx context.Context, r *http.Request) web.Encoder {
	v := getViewer(ctx)

	if err := a.api.SignOut(ctx, v.token); err != nil && !taskclient.IsUnauthenticated(err) {
		a.log.WarnContext(ctx, "sign out", "user_id", v.userID(), "err", err)
	}

	a.clearSession(ctx, v.token)
	return web.NewRedirect("/login")
}
