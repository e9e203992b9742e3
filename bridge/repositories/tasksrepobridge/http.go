package tasksrepobridge

import (
	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

// Config holds configuration for the task bridge. Middleware runs on every
// route and must authenticate the caller and match it against {user_id}.
type Config struct {
	Repository *tasksrepo.Repository
	Middleware []web.Middleware
}

// AddHttpRoutes registers the task routes under /users/{user_id}/tasks.
func AddHttpRoutes(group *web.RouteGroup, cfg Config) {
	b := newBridge(cfg.Repository)
	g := group.Group("/users/{user_id}/tasks", cfg.Middleware...)

	g.GET("", b.httpList)
	g.POST("", b.httpCreate)
	g.GET("/{task_id}", b.httpGetByID)
	g.PUT("/{task_id}", b.httpUpdate)
	g.PATCH("/{task_id}/complete", b.httpToggleComplete)
	g.DELETE("/{task_id}", b.httpDelete)
}
