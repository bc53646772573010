package service

import (
	"context"
	"log/slog"
)

// PostCommitHook is a side effect run after a write has durably committed:
// activity recording and cache invalidation. Hooks never gate the primary
// operation's result — a failed hook is logged and dropped, and callers
// tolerate eventual rather than immediate cache/audit coherency.
type PostCommitHook struct {
	Name string
	Run  func(ctx context.Context) error
}

func runPostCommit(ctx context.Context, logger *slog.Logger, hooks []PostCommitHook) {
	for _, h := range hooks {
		if h.Run == nil {
			continue
		}
		if err := h.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "post-commit side effect failed",
				"hook", h.Name, "error", err)
		}
	}
}
