package mid

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

// Authenticator resolves a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (authcase.Principal, error)
}

// Bearer requires a valid "Authorization: Bearer <token>" header and stores
// the principal in the context.
func Bearer(auth Authenticator) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx context.Context, r *http.Request) web.Encoder {
			token, ok := bearerToken(r)
			if !ok {
				return errs.Newf(errs.Unauthenticated, "expected authorization header format: Bearer <token>")
			}

			p, err := auth.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, authcase.ErrUnauthenticated) {
					return errs.Newf(errs.Unauthenticated, "session is invalid or expired")
				}
				return errs.New(errs.InternalOnlyLog, err)
			}

			return next(setPrincipal(ctx, p), r)
		}
	}
}

// MatchUser rejects requests whose path parameter param names another user
// than the authenticated one. It must run after Bearer.
func MatchUser(param string) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx context.Context, r *http.Request) web.Encoder {
			userID, err := GetUserID(ctx)
			if err != nil {
				return errs.Newf(errs.Unauthenticated, "authentication required")
			}
			if web.Param(r, param) != userID {
				return errs.Newf(errs.PermissionDenied, "cannot access another user's resources")
			}
			return next(ctx, r)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
