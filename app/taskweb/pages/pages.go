// Package pages renders the taskdeck browser front end: the credential
// forms, the guarded task list and the task mutations.
package pages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

// AuthAPI is the auth surface of the task API.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (taskclient.Session, error)
	SignUp(ctx context.Context, email, password, name string) (taskclient.Session, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (taskclient.Session, error)
}

// TaskAPI is the task surface of the task API.
type TaskAPI interface {
	ListAllTasks(ctx context.Context, token, userID string, params taskclient.ListParams) ([]taskclient.Task, error)
	GetTask(ctx context.Context, token, userID, taskID string) (taskclient.Task, error)
	CreateTask(ctx context.Context, token, userID string, input taskclient.CreateTaskInput) (taskclient.Task, error)
	UpdateTask(ctx context.Context, token, userID, taskID string, input taskclient.UpdateTaskInput) (taskclient.Task, error)
	ToggleComplete(ctx context.Context, token, userID, taskID string, completed bool) (taskclient.Task, error)
	DeleteTask(ctx context.Context, token, userID, taskID string) error
}

// API is everything the pages call. *taskclient.Client implements it.
type API interface {
	AuthAPI
	TaskAPI
}

// Settings is the exportable front-end configuration.
type Settings struct {
	CacheSize       int           `env:"SESSION_CACHE_SIZE" default:"1024"`
	MutationTimeout time.Duration `env:"MUTATION_TIMEOUT" default:"10s"`
	SecureCookies   bool          `env:"SECURE_COOKIES" default:"false"`
}

// Config wires an App.
type Config struct {
	Log      *logger.Logger
	API      API
	Caches   *CacheRegistry
	Settings Settings
}

// App serves the pages.
type App struct {
	log      *logger.Logger
	api      API
	caches   *CacheRegistry
	settings Settings
	views    *views

	inflight sync.WaitGroup
}

// New validates cfg and parses the templates.
func New(cfg Config) (*App, error) {
	if cfg.API == nil {
		return nil, errors.New("pages: api is required")
	}
	if cfg.Caches == nil {
		return nil, errors.New("pages: cache registry is required")
	}
	if cfg.Log == nil {
		cfg.Log = logger.NewDiscard()
	}
	if cfg.Settings.MutationTimeout <= 0 {
		cfg.Settings.MutationTimeout = 10 * time.Second
	}

	views, err := parseViews()
	if err != nil {
		return nil, fmt.Errorf("pages: %w", err)
	}

	return &App{
		log:      cfg.Log,
		api:      cfg.API,
		caches:   cfg.Caches,
		settings: cfg.Settings,
		views:    views,
	}, nil
}

// AddHandlers registers the static assets and every page. credential wraps
// the login and signup submissions.
func (a *App) AddHandlers(wh *web.WebHandler, credential ...web.Middleware) error {
	if err := wh.FileServer(assets, "static", "/static/"); err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	wh.GET("/{$}", func(ctx context.Context, r *http.Request) web.Encoder {
		return web.NewRedirect("/tasks")
	})

	wh.GET("/login", a.httpLoginPage)
	wh.POST("/login", a.httpLogin, credential...)
	wh.GET("/signup", a.httpSignupPage)
	wh.POST("/signup", a.httpSignup, credential...)
	wh.POST("/logout", a.httpLogout, a.Guard)

	tasks := wh.Group("/tasks", a.Guard)
	tasks.GET("", a.httpTaskList)
	tasks.POST("", a.httpCreateTask)
	tasks.GET("/{task_id}", a.httpEditTask)
	tasks.POST("/{task_id}", a.httpUpdateTask)
	tasks.POST("/{task_id}/toggle", a.httpToggleTask)
	tasks.POST("/{task_id}/delete", a.httpDeleteTask)

	return nil
}

// Wait blocks until every background mutation has settled or ctx ends.
func (a *App) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
