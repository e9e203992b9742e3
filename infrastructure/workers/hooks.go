package workers

import (
	"context"
	"log/slog"
)

// AddPreProcessHooks registers hooks that run between Checkout and Process.
// Call before Start.
func (wp *WorkerPool[T]) AddPreProcessHooks(hooks ...PreProcessHook[T]) {
	wp.preProcessHooks = append(wp.preProcessHooks, hooks...)
}

// AddPostProcessHooks registers hooks that run between Process and
// Complete/Fail. Call before Start.
func (wp *WorkerPool[T]) AddPostProcessHooks(hooks ...PostProcessHook[T]) {
	wp.postProcessHooks = append(wp.postProcessHooks, hooks...)
}

// LogOutcomeHook logs every processed task at debug level, or at warn when
// processing failed.
func LogOutcomeHook[T Task](log *slog.Logger) PostProcessHook[T] {
	return func(ctx context.Context, task T, err error) error {
		if err != nil {
			log.WarnContext(ctx, "task outcome", "task_id", task.GetID(), "error", err)
			return nil
		}
		log.DebugContext(ctx, "task outcome", "task_id", task.GetID())
		return nil
	}
}
