package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/mid"
	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

type rawErr struct{ msg string }

func (e rawErr) Error() string                   { return e.msg }
func (e rawErr) Encode() ([]byte, string, error) { return []byte(e.msg), "text/plain", nil }

func ok(ctx context.Context, r *http.Request) web.Encoder {
	return web.NewJSONResponse(map[string]string{"status": "ok"})
}

func serve(wh *web.WebHandler, req *http.Request) (int, map[string]string) {
	rec := httptest.NewRecorder()
	wh.ServeHTTP(rec, req)
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, body
}

func TestErrors_HidesInternalDetail(t *testing.T) {
	tests := []struct {
		name    string
		handler web.HandlerFunc
		status  int
		code    string
		message string
	}{
		{"coded", func(ctx context.Context, r *http.Request) web.Encoder {
			return errs.Newf(errs.NotFound, "task not found")
		}, http.StatusNotFound, "not_found", "task not found"},
		{"log only", func(ctx context.Context, r *http.Request) web.Encoder {
			return errs.New(errs.InternalOnlyLog, errors.New("pq: connection refused"))
		}, http.StatusInternalServerError, "internal", "Internal Server Error"},
		{"uncoded", func(ctx context.Context, r *http.Request) web.Encoder {
			return rawErr{msg: "boom"}
		}, http.StatusInternalServerError, "internal", "Internal Server Error"},
		{"panic", func(ctx context.Context, r *http.Request) web.Encoder {
			panic("nil map")
		}, http.StatusInternalServerError, "internal", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wh := web.NewWebHandler(web.WithGlobalMiddleware(mid.Errors(logger.NewDiscard()), mid.Panics()))
			wh.GET("/x", tt.handler)

			status, body := serve(wh, httptest.NewRequest(http.MethodGet, "/x", nil))
			if status != tt.status || body["code"] != tt.code || body["message"] != tt.message {
				t.Fatalf("got %d %v", status, body)
			}
		})
	}
}

type staticAuth map[string]string

func (s staticAuth) Authenticate(ctx context.Context, token string) (authcase.Principal, error) {
	if id, ok := s[token]; ok {
		return authcase.Principal{UserID: id, Token: token}, nil
	}
	if token == "broken" {
		return authcase.Principal{}, errors.New("database down")
	}
	return authcase.Principal{}, authcase.ErrUnauthenticated
}

func TestBearer(t *testing.T) {
	wh := web.NewWebHandler()
	wh.GET("/users/{user_id}/tasks", func(ctx context.Context, r *http.Request) web.Encoder {
		p, err := mid.GetPrincipal(ctx)
		if err != nil {
			return errs.New(errs.Internal, err)
		}
		return web.NewJSONResponse(map[string]string{"user_id": p.UserID})
	}, mid.Bearer(staticAuth{"tok": "ana"}), mid.MatchUser("user_id"))

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"valid", "/users/ana/tasks", "Bearer tok", http.StatusOK},
		{"lower case scheme", "/users/ana/tasks", "bearer tok", http.StatusOK},
		{"missing", "/users/ana/tasks", "", http.StatusUnauthorized},
		{"wrong scheme", "/users/ana/tasks", "Basic tok", http.StatusUnauthorized},
		{"empty token", "/users/ana/tasks", "Bearer  ", http.StatusUnauthorized},
		{"rejected token", "/users/ana/tasks", "Bearer old", http.StatusUnauthorized},
		{"store failure", "/users/ana/tasks", "Bearer broken", http.StatusInternalServerError},
		{"other user", "/users/bob/tasks", "Bearer tok", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			status, body := serve(wh, req)
			if status != tt.status {
				t.Fatalf("got %d %v, want %d", status, body, tt.status)
			}
			if status == http.StatusOK && body["user_id"] != "ana" {
				t.Errorf("principal not stored: %v", body)
			}
		})
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	limit, err := mid.RateLimit(mid.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2, MaxClients: 10})
	if err != nil {
		t.Fatalf("rate limit: %v", err)
	}
	wh := web.NewWebHandler()
	wh.POST("/auth/sign-in", ok, limit)

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
		req.RemoteAddr = addr
		status, _ := serve(wh, req)
		return status
	}

	for i := range 2 {
		if got := send("10.0.0.1:5000"); got != http.StatusOK {
			t.Fatalf("request %d: got %d", i, got)
		}
	}
	if got := send("10.0.0.1:5001"); got != http.StatusTooManyRequests {
		t.Fatalf("expected limit, got %d", got)
	}
	if got := send("10.0.0.2:5000"); got != http.StatusOK {
		t.Fatalf("other client limited: got %d", got)
	}
}

func TestMetrics_CountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "taskdeck")

	wh := web.NewWebHandler(web.WithGlobalMiddleware(mid.Metrics(m), mid.Errors(logger.NewDiscard())))
	wh.GET("/ok", ok)
	wh.GET("/missing", func(ctx context.Context, r *http.Request) web.Encoder {
		return errs.Newf(errs.NotFound, "nope")
	})

	serve(wh, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(wh, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if n, err := testutil.GatherAndCount(reg, "taskdeck_http_requests_total"); err != nil || n != 2 {
		t.Fatalf("requests series: got %d %v", n, err)
	}
	if n, err := testutil.GatherAndCount(reg, "taskdeck_http_errors_total"); err != nil || n != 1 {
		t.Fatalf("errors series: got %d %v", n, err)
	}
}

func TestLogger_PassesResponseThrough(t *testing.T) {
	wh := web.NewWebHandler(web.WithGlobalMiddleware(mid.Logger(logger.NewDiscard())))
	wh.GET("/ok", ok)

	status, body := serve(wh, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("got %d %v", status, body)
	}
}
