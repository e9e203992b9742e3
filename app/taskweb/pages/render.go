package pages

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

//go:embed templates
var templateFiles embed.FS

//go:embed static
var assets embed.FS

// Page is the data every template receives. Data holds the page's own
// view model.
type Page struct {
	Title string
	User  *taskclient.User
	Data  any
}

type views struct {
	pages map[string]*template.Template
}

var pageFiles = []string{"login", "signup", "tasks", "task_edit", "error"}

func parseViews() (*views, error) {
	funcs := template.FuncMap{"join": joinTags}

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFiles, "templates/layout.html", "templates/task_item.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	v := &views{pages: make(map[string]*template.Template, len(pageFiles))}
	for _, name := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", name, err)
		}
		t, err := clone.ParseFS(templateFiles, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (a *App) render(ctx context.Context, name string, status int, page Page) web.Encoder {
	t, ok := a.views.pages[name]
	if !ok {
		return errs.Newf(errs.InternalOnlyLog, "unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return errs.Newf(errs.InternalOnlyLog, "rendering %s: %s", name, err)
	}
	return web.NewHTMLResponse(buf.Bytes(), status)
}

type errorView struct {
	Message string
}

// renderError shows a remote failure the user cannot fix from the form.
func (a *App) renderError(ctx context.Context, user *taskclient.User, err error) web.Encoder {
	a.log.WarnContext(ctx, "page error", "err", err)

	status := http.StatusBadGateway
	msg := "Something went wrong. Please try again."

	var apiErr *taskclient.APIError
	switch {
	case taskclient.IsNotFound(err):
		status = http.StatusNotFound
		msg = "That task no longer exists."
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError && apiErr.Message != "":
		status = http.StatusBadRequest
		msg = apiErr.Message
	}

	return a.render(ctx, "error", status, Page{
		Title: "Error",
		User:  user,
		Data:  errorView{Message: msg},
	})
}
