package mid

import (
	"context"
	"log/slog"
	"net/http"
	"path"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

// Errors turns an error response into a coded *errs.Error. Errors without a
// code and InternalOnlyLog errors reach the client as a bare Internal.
// Client faults are logged at warn, server faults at error.
func Errors(log *logger.Logger) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)
			err := isError(resp)
			if err == nil {
				return resp
			}

			appErr := errs.GetError(err)
			if appErr == nil {
				appErr = errs.Newf(errs.Internal, "Internal Server Error")
			}
			metrics.AddErrors(ctx, appErr.Code.String())

			level := slog.LevelWarn
			if appErr.HTTPStatus() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(ctx, level, "request failed",
				"err", err,
				"code", appErr.Code.String(),
				"method", r.Method,
				"path", r.URL.Path,
				"source_err_file", path.Base(appErr.FileName),
				"source_err_func", path.Base(appErr.FuncName))

			if appErr.Code.Equal(errs.InternalOnlyLog) {
				return errs.Newf(errs.Internal, "Internal Server Error")
			}
			return appErr
		}
	}
}
