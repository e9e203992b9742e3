package pages

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/querycache"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

const sessionCookie = "taskdeck_session"

type ctxKey int

const viewerKey ctxKey = 1

// viewer is the signed-in user of one request.
type viewer struct {
	token   string
	session taskclient.Session
	state   *ClientState
}

func (v *viewer) userID() string {
	return v.session.User.UserID
}

func (v *viewer) user() *taskclient.User {
	u := v.session.User
	return &u
}

func getViewer(ctx context.Context) *viewer {
	v, _ := ctx.Value(viewerKey).(*viewer)
	return v
}

// Guard lets a request through only once its session is known. Requests
// without a session cookie are sent to the login page; a session the API
// rejects is forgotten before the redirect.
func (a *App) Guard(next web.HandlerFunc) web.HandlerFunc {
	return func(ctx context.Context, r *http.Request) web.Encoder {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			return web.NewRedirect(loginURL(r))
		}
		token := cookie.Value

		state := a.caches.Get(token)
		session, err := querycache.FetchQuery(ctx, state.Cache, sessionKey, func(ctx context.Context) (taskclient.Session, error) {
			return a.api.Session(ctx, token)
		})
		if err == nil && !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
			err = &taskclient.APIError{Status: http.StatusUnauthorized, Code: taskclient.CodeUnauthenticated, Message: "session expired"}
		}
		if err != nil {
			if taskclient.IsUnauthenticated(err) {
				a.log.InfoContext(ctx, "session rejected", "err", err)
				a.clearSession(ctx, token)
				return web.NewRedirect("/login")
			}
			return a.renderError(ctx, nil, err)
		}

		ctx = context.WithValue(ctx, viewerKey, &viewer{token: token, session: session, state: state})
		return next(ctx, r)
	}
}

// loginURL sends the user back to r after signing in. Only page loads are
// worth returning to.
func loginURL(r *http.Request) string {
	if r.Method != http.MethodGet {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(r.URL.RequestURI())
}

// safeNext keeps post-login navigation on this site.
func safeNext(next string) string {
	if len(next) < 2 || next[0] != '/' || next[1] == '/' || next[1] == '\\' {
		return "/tasks"
	}
	return next
}

func (a *App) startSession(ctx context.Context, s taskclient.Session) {
	state := a.caches.Get(s.Token)
	state.Cache.SetQueryData(sessionKey, s)

	http.SetCookie(web.GetWriter(ctx), &http.Cookie{
		Name:     sessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   a.settings.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *App) clearSession(ctx context.Context, token string) {
	a.caches.Remove(token)

	http.SetCookie(web.GetWriter(ctx), &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.settings.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
