package pages_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

type fakeUser struct {
	user     taskclient.User
	password string
}

// fakeAPI is an in-memory task API. Tokens are "tok-<user id>".
type fakeAPI struct {
	mu       sync.Mutex
	users    map[string]fakeUser
	revoked  map[string]bool
	tasks    []taskclient.Task
	counts   map[string]int
	failList bool

	toggleErr  error
	deleteErr  error
	toggleGate chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:   make(map[string]fakeUser),
		revoked: make(map[string]bool),
		counts:  make(map[string]int),
	}
}

func (f *fakeAPI) addUser(email, password, name string) taskclient.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := taskclient.User{UserID: "u" + name, Email: email, Name: name}
	f.users[email] = fakeUser{user: u, password: password}
	return u
}

func (f *fakeAPI) addTask(t taskclient.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
}

func (f *fakeAPI) snapshot() []taskclient.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]taskclient.Task(nil), f.tasks...)
}

func (f *fakeAPI) calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[name]
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name]++
}

func session(u taskclient.User) taskclient.Session {
	return taskclient.Session{Token: "tok-" + u.UserID, ExpiresAt: time.Now().Add(time.Hour), User: u}
}

func (f *fakeAPI) SignIn(ctx context.Context, email, password string) (taskclient.Session, error) {
	f.count("SignIn")
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return taskclient.Session{}, &taskclient.AuthError{Kind: taskclient.KindAccountNotFound, Message: "account not found"}
	}
	if u.password != password {
		return taskclient.Session{}, &taskclient.AuthError{Kind: taskclient.KindInvalidCredentials, Message: "invalid credentials"}
	}
	return session(u.user), nil
}

func (f *fakeAPI) SignUp(ctx context.Context, email, password, name string) (taskclient.Session, error) {
	f.count("SignUp")
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[email]; ok {
		return taskclient.Session{}, &taskclient.AuthError{Kind: taskclient.KindDuplicateAccount, Message: "User already exists"}
	}
	u := taskclient.User{UserID: "u" + name, Email: email, Name: name}
	f.users[email] = fakeUser{user: u, password: password}
	return session(u), nil
}

func (f *fakeAPI) SignOut(ctx context.Context, token string) error {
	f.count("SignOut")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = true
	return nil
}

func (f *fakeAPI) Session(ctx context.Context, token string) (taskclient.Session, error) {
	f.count("Session")
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.revoked[token] {
		for _, u := range f.users {
			if "tok-"+u.user.UserID == token {
				return session(u.user), nil
			}
		}
	}
	return taskclient.Session{}, &taskclient.APIError{Status: http.StatusUnauthorized, Code: taskclient.CodeUnauthenticated, Message: "invalid session"}
}

func (f *fakeAPI) ListAllTasks(ctx context.Context, token, userID string, params taskclient.ListParams) ([]taskclient.Task, error) {
	f.count("ListAllTasks")
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failList {
		return nil, &taskclient.APIError{Status: http.StatusInternalServerError, Code: taskclient.CodeInternal}
	}
	var out []taskclient.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAPI) find(userID, taskID string) int {
	for i, t := range f.tasks {
		if t.UserID == userID && t.TaskID == taskID {
			return i
		}
	}
	return -1
}

func notFound() error {
	return &taskclient.APIError{Status: http.StatusNotFound, Code: taskclient.CodeNotFound, Message: "task not found"}
}

func (f *fakeAPI) GetTask(ctx context.Context, token, userID, taskID string) (taskclient.Task, error) {
	f.count("GetTask")
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.find(userID, taskID)
	if i < 0 {
		return taskclient.Task{}, notFound()
	}
	return f.tasks[i], nil
}

func (f *fakeAPI) CreateTask(ctx context.Context, token, userID string, input taskclient.CreateTaskInput) (taskclient.Task, error) {
	f.count("CreateTask")
	f.mu.Lock()
	defer f.mu.Unlock()

	t := taskclient.Task{
		TaskID:      "t" + strings.Repeat("n", len(f.tasks)+1),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Tags:        input.Tags,
		DueDate:     input.DueDate,
	}
	if t.Priority == "" {
		t.Priority = taskclient.PriorityMedium
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, token, userID, taskID string, input taskclient.UpdateTaskInput) (taskclient.Task, error) {
	f.count("UpdateTask")
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.find(userID, taskID)
	if i < 0 {
		return taskclient.Task{}, notFound()
	}
	t := &f.tasks[i]
	if input.Title != nil {
		t.Title = *input.Title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Priority != nil {
		t.Priority = *input.Priority
	}
	if input.Tags != nil {
		t.Tags = *input.Tags
	}
	if input.DueDate != nil {
		t.DueDate = *input.DueDate
	}
	return *t, nil
}

func (f *fakeAPI) ToggleComplete(ctx context.Context, token, userID, taskID string, completed bool) (taskclient.Task, error) {
	f.count("ToggleComplete")

	f.mu.Lock()
	gate := f.toggleGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.toggleErr != nil {
		return taskclient.Task{}, f.toggleErr
	}
	i := f.find(userID, taskID)
	if i < 0 {
		return taskclient.Task{}, notFound()
	}
	f.tasks[i].Completed = completed
	return f.tasks[i], nil
}

func (f *fakeAPI) DeleteTask(ctx context.Context, token, userID, taskID string) error {
	f.count("DeleteTask")
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	i := f.find(userID, taskID)
	if i < 0 {
		return notFound()
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}
