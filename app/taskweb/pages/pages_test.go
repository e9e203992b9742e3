package pages_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jrazmi/taskdeck/app/taskweb/pages"
	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/querycache"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

type harness struct {
	api    *fakeAPI
	app    *pages.App
	caches *pages.CacheRegistry
	wh     *web.WebHandler
	user   taskclient.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	api := newFakeAPI()
	user := api.addUser("ana@example.com", "password1", "Ana")
	api.addTask(taskclient.Task{TaskID: "t1", UserID: user.UserID, Title: "Write report", Priority: taskclient.PriorityHigh})
	api.addTask(taskclient.Task{TaskID: "t2", UserID: user.UserID, Title: "Buy milk", Priority: taskclient.PriorityLow, Completed: true})

	caches, err := pages.NewCacheRegistry(8,
		querycache.WithStaleTime(time.Minute),
		querycache.WithRetryInterval(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	t.Cleanup(caches.Close)

	app, err := pages.New(pages.Config{API: api, Caches: caches})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	wh := web.NewWebHandler()
	if err := app.AddHandlers(wh); err != nil {
		t.Fatalf("handlers: %v", err)
	}

	return &harness{api: api, app: app, caches: caches, wh: wh, user: user}
}

func (h *harness) do(method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	h.wh.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "taskdeck_session" {
			return c
		}
	}
	return nil
}

func (h *harness) login(t *testing.T) *http.Cookie {
	t.Helper()

	rec := h.do(http.MethodPost, "/login", url.Values{"email": {"ana@example.com"}, "password": {"password1"}}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login: got %d %s", rec.Code, rec.Body.String())
	}
	c := sessionCookie(rec)
	if c == nil || c.Value == "" {
		t.Fatal("login did not set the session cookie")
	}
	return c
}

func (h *harness) cachedTasks(token string) []taskclient.Task {
	tasks, _ := querycache.GetQueryData[[]taskclient.Task](h.caches.Get(token).Cache, querycache.Key{"tasks"})
	return tasks
}

func completion(tasks []taskclient.Task) map[string]bool {
	out := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		out[t.TaskID] = t.Completed
	}
	return out
}

func TestGuard_RedirectsWithoutSession(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/tasks?sort=title", nil, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login?next=%2Ftasks%3Fsort%3Dtitle" {
		t.Errorf("location: got %q", got)
	}
	if h.api.calls("ListAllTasks") != 0 {
		t.Error("tasks were fetched for an anonymous request")
	}
}

func TestGuard_ForgetsRejectedSession(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/tasks", nil, &http.Cookie{Name: "taskdeck_session", Value: "tok-stolen"})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("got %d to %q", rec.Code, rec.Header().Get("Location"))
	}
	c := sessionCookie(rec)
	if c == nil || c.MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got %+v", c)
	}
	if h.caches.Len() != 0 {
		t.Errorf("rejected session kept a cache")
	}
	if n := h.api.calls("Session"); n != 1 {
		t.Errorf("rejected session looked up %d times", n)
	}
	if strings.Contains(rec.Body.String(), "Write report") {
		t.Error("protected content rendered")
	}
}

func TestLogin_ThenTaskList(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	rec := h.do(http.MethodGet, "/tasks", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Write report", "Buy milk", "1 open of 2", "Ana"} {
		if !strings.Contains(body, want) {
			t.Errorf("page is missing %q", want)
		}
	}
	if h.api.calls("Session") != 0 {
		t.Error("session seeded at login was fetched again")
	}
}

func TestLogin_NextIsKeptOnSite(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/tasks/t1", "/tasks/t1"},
		{"//evil.example", "/tasks"},
		{"https://evil.example", "/tasks"},
		{"", "/tasks"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			h := newHarness(t)
			rec := h.do(http.MethodPost, "/login", url.Values{
				"email":    {"ana@example.com"},
				"password": {"password1"},
				"next":     {tt.next},
			}, nil)
			if got := rec.Header().Get("Location"); got != tt.want {
				t.Errorf("location: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCredentialPages_ShowErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		form   url.Values
		want   string
		calls  string
		nCalls int
	}{
		{"empty login", "/login", url.Values{"email": {""}, "password": {""}}, pages.MsgLoginRequired, "SignIn", 0},
		{"wrong password", "/login", url.Values{"email": {"ana@example.com"}, "password": {"nope"}}, pages.MsgInvalidCredentials, "SignIn", 1},
		{"unknown account", "/login", url.Values{"email": {"bo@example.com"}, "password": {"password1"}}, pages.MsgAccountNotFound, "SignIn", 1},
		{"signup mismatch", "/signup", url.Values{"name": {"Bo"}, "email": {"bo@example.com"}, "password": {"password1"}, "confirm_password": {"password2"}}, pages.MsgPasswordMismatch, "SignUp", 0},
		{"quick signup short", "/signup", url.Values{"variant": {"quick"}, "email": {"bo@example.com"}, "password": {"passwor"}, "confirm_password": {"passwor"}}, pages.MsgPasswordTooShort, "SignUp", 0},
		{"duplicate", "/signup", url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "password": {"password1"}, "confirm_password": {"password1"}}, pages.MsgDuplicateAccount, "SignUp", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			rec := h.do(http.MethodPost, tt.target, tt.form, nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status: got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("page is missing %q", tt.want)
			}
			if rec.Header().Get("Location") != "" || sessionCookie(rec) != nil {
				t.Error("failed submission navigated")
			}
			if got := h.api.calls(tt.calls); got != tt.nCalls {
				t.Errorf("%s calls: got %d, want %d", tt.calls, got, tt.nCalls)
			}
		})
	}
}

func TestSignupPage_QuickVariantHasNoName(t *testing.T) {
	h := newHarness(t)

	full := h.do(http.MethodGet, "/signup", nil, nil).Body.String()
	quick := h.do(http.MethodGet, "/signup?variant=quick", nil, nil).Body.String()

	if !strings.Contains(full, `name="name"`) {
		t.Error("full signup is missing the name field")
	}
	if strings.Contains(quick, `name="name"`) {
		t.Error("quick signup shows a name field")
	}
}

func TestToggle_RollsBackOnFailure(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	h.do(http.MethodGet, "/tasks", nil, cookie)

	before := h.cachedTasks(cookie.Value)
	gate := make(chan struct{})
	h.api.set(func(f *fakeAPI) { f.toggleGate = gate })

	rec := h.do(http.MethodPost, "/tasks/t1/toggle", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("toggle: got %d", rec.Code)
	}

	if !completion(h.cachedTasks(cookie.Value))["t1"] {
		t.Fatal("optimistic value not applied")
	}
	page := h.do(http.MethodGet, "/tasks", nil, cookie).Body.String()
	if !strings.Contains(page, "task-pending") {
		t.Error("pending task not marked on the page")
	}

	h.api.set(func(f *fakeAPI) {
		f.toggleErr = &taskclient.APIError{Status: http.StatusInternalServerError, Code: taskclient.CodeInternal}
		f.failList = true
	})
	close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.app.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if got := h.cachedTasks(cookie.Value); !reflect.DeepEqual(got, before) {
		t.Fatalf("rollback: got %+v, want %+v", got, before)
	}
	if h.caches.Get(cookie.Value).Pending("t1") {
		t.Error("task still pending after settle")
	}
}

func TestToggle_ConvergesOnServer(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	h.do(http.MethodGet, "/tasks", nil, cookie)

	h.do(http.MethodPost, "/tasks/t2/toggle", url.Values{}, cookie)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.app.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	got := completion(h.cachedTasks(cookie.Value))
	want := completion(h.api.snapshot())
	if !reflect.DeepEqual(got, want) || got["t2"] {
		t.Fatalf("cache %v, server %v", got, want)
	}
}

func TestDelete_FailureKeepsConfirmation(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	confirm := h.do(http.MethodGet, "/tasks?confirm=t1", nil, cookie).Body.String()
	if !strings.Contains(confirm, "Are you sure you want to delete this task?") {
		t.Fatal("confirmation prompt not shown")
	}

	h.api.set(func(f *fakeAPI) {
		f.deleteErr = &taskclient.APIError{Status: http.StatusInternalServerError, Code: taskclient.CodeInternal}
	})

	rec := h.do(http.MethodPost, "/tasks/t1/delete", url.Values{}, cookie)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, pages.MsgDeleteFailed) || !strings.Contains(body, "Yes, Delete") {
		t.Error("failure message or open confirmation missing")
	}
	if len(h.cachedTasks(cookie.Value)) != 2 {
		t.Error("task removed from the cache after a failed delete")
	}
}

func TestDelete_RefetchesList(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	h.do(http.MethodGet, "/tasks/t1", nil, cookie)
	h.do(http.MethodGet, "/tasks", nil, cookie)

	rec := h.do(http.MethodPost, "/tasks/t1/delete", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d", rec.Code)
	}

	tasks := h.cachedTasks(cookie.Value)
	if len(tasks) != 1 || tasks[0].TaskID != "t2" {
		t.Fatalf("cache after delete: %+v", tasks)
	}
	if got := h.api.calls("GetTask"); got != 1 {
		t.Errorf("deleted task was refetched, GetTask calls %d", got)
	}
}

func TestCreateAndUpdateTask(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	rec := h.do(http.MethodPost, "/tasks", url.Values{"title": {"  "}}, cookie)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), pages.MsgTitleRequired) {
		t.Fatalf("blank title: got %d", rec.Code)
	}
	if h.api.calls("CreateTask") != 0 {
		t.Fatal("blank title reached the API")
	}

	rec = h.do(http.MethodPost, "/tasks", url.Values{
		"title":    {"Plan trip"},
		"priority": {"Low"},
		"tags":     {"travel, home"},
		"due_date": {"2030-05-01"},
	}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create: got %d %s", rec.Code, rec.Body.String())
	}
	if len(h.cachedTasks(cookie.Value)) != 3 {
		t.Fatal("list not refetched after create")
	}

	rec = h.do(http.MethodPost, "/tasks/t1", url.Values{"title": {"Write final report"}, "priority": {"Medium"}, "due_date": {"not a date"}}, cookie)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), pages.MsgInvalidDueDate) {
		t.Fatalf("bad date: got %d", rec.Code)
	}

	rec = h.do(http.MethodPost, "/tasks/t1", url.Values{"title": {"Write final report"}, "priority": {"Medium"}}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update: got %d", rec.Code)
	}
	page := h.do(http.MethodGet, "/tasks", nil, cookie).Body.String()
	if !strings.Contains(page, "Write final report") {
		t.Error("updated title not shown")
	}
}

func TestLogout_DropsSession(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	state := h.caches.Get(cookie.Value)

	rec := h.do(http.MethodPost, "/logout", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("got %d to %q", rec.Code, rec.Header().Get("Location"))
	}
	if h.api.calls("SignOut") != 1 {
		t.Error("sign-out not called")
	}
	if _, err := state.Cache.Fetch(context.Background(), querycache.Key{"tasks"}, nil); err == nil {
		t.Error("cache still open after logout")
	}

	rec = h.do(http.MethodGet, "/tasks", nil, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("revoked session reached the list: %d", rec.Code)
	}
}
