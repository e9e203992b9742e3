package taskclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrazmi/taskdeck/sdk/taskclient"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestSignIn_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/auth/sign-in" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ana@example.com" || body["password"] != "hunter22" {
			t.Errorf("unexpected body %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":      "tok",
			"expires_at": "2030-01-01T00:00:00Z",
			"user":       map[string]string{"user_id": "u1", "email": "ana@example.com", "name": "Ana"},
		})
	}))
	defer srv.Close()

	c := taskclient.New(srv.URL + "/api/v1")
	s, err := c.SignIn(context.Background(), "ana@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if s.Token != "tok" || s.User.UserID != "u1" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestAuthErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    map[string]string
		want    taskclient.Kind
		wantMsg string
	}{
		{"invalid credentials code", 401, map[string]string{"code": "invalid_credentials", "message": "bad"}, taskclient.KindInvalidCredentials, "bad"},
		{"account not found code", 404, map[string]string{"code": "account_not_found", "message": "nope"}, taskclient.KindAccountNotFound, "nope"},
		{"duplicate code", 409, map[string]string{"code": "duplicate_account", "message": "dup"}, taskclient.KindDuplicateAccount, "dup"},
		{"duplicate wording", 400, map[string]string{"code": "invalid_argument", "message": "User already exists"}, taskclient.KindDuplicateAccount, "User already exists"},
		{"duplicate message only", 400, map[string]string{"message": "duplicate email"}, taskclient.KindDuplicateAccount, "duplicate email"},
		{"not found message only", 400, map[string]string{"message": "Account not found"}, taskclient.KindAccountNotFound, "Account not found"},
		{"credentials message only", 400, map[string]string{"message": "Invalid credentials"}, taskclient.KindInvalidCredentials, "Invalid credentials"},
		{"password message only", 400, map[string]string{"message": "wrong password"}, taskclient.KindInvalidCredentials, "wrong password"},
		{"password wins over not found", 400, map[string]string{"message": "password not found"}, taskclient.KindInvalidCredentials, "password not found"},
		{"other", 400, map[string]string{"code": "invalid_argument", "message": "email is malformed"}, taskclient.KindUnknown, "email is malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := taskclient.New(srv.URL).SignUp(context.Background(), "a@b.co", "password1", "A")

			var authErr *taskclient.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *AuthError, got %T %v", err, err)
			}
			if authErr.Kind != tt.want {
				t.Errorf("kind: got %v, want %v", authErr.Kind, tt.want)
			}
			if authErr.Error() != tt.wantMsg {
				t.Errorf("message: got %q, want %q", authErr.Error(), tt.wantMsg)
			}

			var apiErr *taskclient.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Errorf("expected wrapped APIError with status %d, got %v", tt.status, apiErr)
			}
		})
	}
}

func TestToggleComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/users/u1/tasks/t1/complete" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization: got %q", got)
		}
		var body struct {
			Completed bool `json:"completed"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"record": map[string]any{"task_id": "t1", "user_id": "u1", "title": "Write", "completed": body.Completed},
		})
	}))
	defer srv.Close()

	task, err := taskclient.New(srv.URL).ToggleComplete(context.Background(), "tok", "u1", "t1", true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !task.Completed || task.TaskID != "t1" {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestListAllTasks_FollowsCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("completed") != "false" {
			t.Errorf("filter not forwarded: %s", r.URL.RawQuery)
		}
		switch r.URL.Query().Get("cursor") {
		case "":
			writeJSON(w, http.StatusOK, map[string]any{
				"records":  []map[string]any{{"task_id": "a"}, {"task_id": "b"}},
				"pageInfo": map[string]any{"hasNext": true, "nextCursor": "c2"},
			})
		case "c2":
			writeJSON(w, http.StatusOK, map[string]any{
				"records":  []map[string]any{{"task_id": "c"}},
				"pageInfo": map[string]any{},
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	open := false
	tasks, err := taskclient.New(srv.URL).ListAllTasks(context.Background(), "tok", "u1", taskclient.ListParams{Completed: &open})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 3 || tasks[2].TaskID != "c" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestDeleteTask_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "task not found"})
	}))
	defer srv.Close()

	err := taskclient.New(srv.URL).DeleteTask(context.Background(), "tok", "u1", "missing")
	if !taskclient.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "internal", "message": "boom"})
	}))
	defer srv.Close()

	c := taskclient.New(srv.URL, taskclient.WithBreaker(2, time.Minute))
	ctx := context.Background()

	for range 2 {
		if _, err := c.Session(ctx, "tok"); err == nil {
			t.Fatal("expected error")
		}
	}

	_, err := c.Session(ctx, "tok")
	if err == nil || hits.Load() != 2 {
		t.Fatalf("expected breaker to short-circuit, hits=%d err=%v", hits.Load(), err)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "unauthenticated", "message": "expired"})
	}))
	defer srv.Close()

	c := taskclient.New(srv.URL, taskclient.WithBreaker(1, time.Minute))
	for range 3 {
		_, err := c.Session(context.Background(), "tok")
		if !taskclient.IsUnauthenticated(err) {
			t.Fatalf("expected unauthenticated, got %v", err)
		}
	}
	if hits.Load() != 3 {
		t.Fatalf("expected every call to reach the server, got %d", hits.Load())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", errors.New("connection refused"), true},
		{"unauthenticated", &taskclient.APIError{Status: http.StatusUnauthorized, Code: taskclient.CodeUnauthenticated}, false},
		{"not found", &taskclient.APIError{Status: http.StatusNotFound}, false},
		{"rate limited", &taskclient.APIError{Status: http.StatusTooManyRequests}, true},
		{"server", &taskclient.APIError{Status: http.StatusBadGateway}, true},
	}
	for _, tt := range tests {
		if got := taskclient.IsRetryable(tt.err); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
