// Package telemetry carries per-request trace values through a context.
package telemetry

import (
	"context"
	"time"

	"github.com/jrazmi/taskdeck/sdk/cryptids"
)

type telKey int

const traceKey telKey = 1

// NoTrace is reported when a context carries no trace values.
const NoTrace = "--------NOTRACE--------"

// TraceValues describes one request as it moves through the middleware.
type TraceValues struct {
	TraceID    string
	Now        time.Time
	StatusCode int
}

// Telemetry hands out trace ids. The zero value is ready to use.
type Telemetry struct{}

// NewTelemetry creates a new telemetry instance.
func NewTelemetry() Telemetry {
	return Telemetry{}
}

// SetTraceID starts a trace for a new request.
func (t Telemetry) SetTraceID(ctx context.Context) context.Context {
	tid, err := cryptids.GenerateID()
	if err != nil {
		tid = NoTrace
	}
	return context.WithValue(ctx, traceKey, &TraceValues{
		TraceID: tid,
		Now:     time.Now().UTC(),
	})
}

// GetTraceID returns the trace id of the request carried by ctx.
func (t Telemetry) GetTraceID(ctx context.Context) string {
	return GetValues(ctx).TraceID
}

// GetValues returns the trace values, or placeholder values outside a request.
func GetValues(ctx context.Context) *TraceValues {
	v, ok := ctx.Value(traceKey).(*TraceValues)
	if !ok {
		return &TraceValues{
			TraceID: NoTrace,
			Now:     time.Now().UTC(),
		}
	}
	return v
}

// SetStatusCode records the response status for the request logger.
func SetStatusCode(ctx context.Context, statusCode int) {
	if v, ok := ctx.Value(traceKey).(*TraceValues); ok {
		v.StatusCode = statusCode
	}
}
