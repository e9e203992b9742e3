package web

import (
	"context"
	"net/http"
	"slices"
)

// buildHandlerChain wraps handler so global middleware runs first, then the
// route's own, in the order given.
func (wh *WebHandler) buildHandlerChain(handler HandlerFunc, middleware ...Middleware) HandlerFunc {
	chain := slices.Concat(wh.globalMiddleware, middleware)
	for _, mw := range slices.Backward(chain) {
		handler = mw(handler)
	}
	return handler
}

// allowedOrigin reports the value for Access-Control-Allow-Origin, or ""
// when origin is not configured. A "*" entry matches any origin but the
// request origin is still echoed, since credentials are allowed.
func (wh *WebHandler) allowedOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	for _, o := range wh.corsOrigins {
		if o == "*" || o == origin {
			return origin
		}
	}
	return ""
}

func (wh *WebHandler) corsMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, r *http.Request) Encoder {
			w := GetWriter(ctx)
			if w == nil {
				return NewError("internal server error: response writer not available")
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if origin := wh.allowedOrigin(r.Header.Get("Origin")); origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method != http.MethodOptions {
				return next(ctx, r)
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "86400")
			return NewNoResponse()
		}
	}
}
