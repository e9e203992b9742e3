package mid

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

// RateLimitConfig bounds requests per client address.
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" default:"5"`
	Burst             int     `env:"RATE_LIMIT_BURST" default:"10"`
	MaxClients        int     `env:"RATE_LIMIT_MAX_CLIENTS" default:"10000"`
	TrustForwarded    bool    `env:"RATE_LIMIT_TRUST_FORWARDED" default:"false"`
}

// RateLimit allows each client address a token bucket of cfg.Burst refilled
// at cfg.RequestsPerSecond. The least recently seen clients are forgotten
// once cfg.MaxClients is reached.
func RateLimit(cfg RateLimitConfig) (web.Middleware, error) {
	limiters, err := lru.New[string, *rate.Limiter](max(cfg.MaxClients, 1))
	if err != nil {
		return nil, err
	}
	var mu sync.Mutex

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if l, ok := limiters.Get(key); ok {
			return l
		}
		l := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		limiters.Add(key, l)
		return l
	}

	mw := func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx context.Context, r *http.Request) web.Encoder {
			if !limiterFor(clientAddr(r, cfg.TrustForwarded)).Allow() {
				metrics.AddRateLimited(ctx)
				return errs.Newf(errs.RateLimited, "too many requests, slow down")
			}
			return next(ctx, r)
		}
	}
	return mw, nil
}

func clientAddr(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
