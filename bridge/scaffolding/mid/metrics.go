package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

// Metrics updates program counters.
func Metrics(m *metrics.Metrics) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx context.Context, r *http.Request) web.Encoder {
			ctx = m.Set(ctx)
			start := time.Now()

			resp := next(ctx, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			n := metrics.AddRequests(ctx, r.Method, route, web.StatusCode(resp), time.Since(start))

			if n%1000 == 0 {
				metrics.AddGoroutines(ctx)
			}

			return resp
		}
	}
}
