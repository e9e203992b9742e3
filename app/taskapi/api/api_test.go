package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jrazmi/taskdeck/app/taskapi/api"
	"github.com/jrazmi/taskdeck/app/taskapi/config"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/mid"
	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

// newHandler wires the routes without storage. Only requests that are
// rejected before reaching a store are sent.
func newHandler(t *testing.T, check func(context.Context) error) http.Handler {
	t.Helper()

	log := logger.NewDiscard()
	auth, err := authcase.New(log, nil, nil, authcase.WithSecret("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	reg := prometheus.NewRegistry()
	h, err := api.NewHandler(config.TaskAPI{
		Logger:       log,
		Repositories: config.Repositories{Tasks: tasksrepo.NewRepository(log, nil)},
		UseCases:     config.UseCases{Auth: auth},
		Metrics:      metrics.New(reg, "taskdeck"),
		Registry:     reg,
		RateLimit:    mid.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, MaxClients: 10},
		StatusCheck:  check,
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return h
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:4000"
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name   string
		check  func(context.Context) error
		status int
	}{
		{"up", func(context.Context) error { return nil }, http.StatusOK},
		{"down", func(context.Context) error { return errors.New("dial tcp: refused") }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newHandler(t, tt.check), http.MethodGet, "/healthz", "")
			if rec.Code != tt.status {
				t.Fatalf("got %d %s", rec.Code, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "refused") {
				t.Errorf("leaked cause: %s", rec.Body.String())
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHandler(t, func(context.Context) error { return nil })
	do(h, http.MethodGet, "/healthz", "")

	rec := do(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "taskdeck_http_requests_total") {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestTaskRoutesRequireBearer(t *testing.T) {
	h := newHandler(t, func(context.Context) error { return nil })

	rec := do(h, http.MethodGet, "/api/v1/users/u1/tasks", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSignInIsRateLimited(t *testing.T) {
	h := newHandler(t, func(context.Context) error { return nil })

	// An empty body is rejected before the use case runs.
	if rec := do(h, http.MethodPost, "/api/v1/auth/sign-in", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("first: got %d %s", rec.Code, rec.Body.String())
	}
	rec := do(h, http.MethodPost, "/api/v1/auth/sign-in", "")
	if rec.Code != http.StatusTooManyRequests || !strings.Contains(rec.Body.String(), "rate_limited") {
		t.Fatalf("second: got %d %s", rec.Code, rec.Body.String())
	}
}
