// Package mid provides app level middleware support.
package mid

import (
	"context"
	"errors"

	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

type ctxKey int

const (
	principalKey ctxKey = iota + 1
	userIDKey
)

func setPrincipal(ctx context.Context, p authcase.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return context.WithValue(ctx, userIDKey, p.UserID)
}

// GetPrincipal returns the authenticated principal from the context.
func GetPrincipal(ctx context.Context) (authcase.Principal, error) {
	v, ok := ctx.Value(principalKey).(authcase.Principal)
	if !ok {
		return authcase.Principal{}, errors.New("principal not found in context")
	}
	return v, nil
}

// GetUserID returns the user id from the context.
func GetUserID(ctx context.Context) (string, error) {
	v, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return "", errors.New("user id not found in context")
	}

	return v, nil
}

// isError tests if the Encoder has an error inside of it.
func isError(e web.Encoder) error {
	err, isError := e.(error)
	if isError {
		return err
	}
	return nil
}
