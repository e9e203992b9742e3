// Package authcasebridge exposes sign-up, sign-in, sign-out and session
// lookup over HTTP.
package authcasebridge

import (
	"github.com/jrazmi/taskdeck/bridge/scaffolding/mid"
	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

// Config holds configuration for the auth bridge. CredentialMiddleware runs
// on the routes that accept a password.
type Config struct {
	Usecase              *authcase.Usecase
	CredentialMiddleware []web.Middleware
}

// AddHttpRoutes registers the auth routes under /auth.
func AddHttpRoutes(group *web.RouteGroup, cfg Config) {
	b := newBridge(cfg.Usecase)
	g := group.Group("/auth")
	bearer := mid.Bearer(cfg.Usecase)

	g.POST("/sign-up", b.httpSignUp, cfg.CredentialMiddleware...)
	g.POST("/sign-in", b.httpSignIn, cfg.CredentialMiddleware...)
	g.POST("/sign-out", b.httpSignOut, bearer)
	g.GET("/session", b.httpSession, bearer)
}
