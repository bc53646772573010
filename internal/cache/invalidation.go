package cache

import (
	"context"
	"log/slog"
)

// Mutation names a write path that must purge cache keys afterwards.
type Mutation string

const (
	MutationImportWorkspace Mutation = "import_workspace"
	MutationUpdateWorkspace Mutation = "update_workspace"
	MutationDeleteWorkspace Mutation = "delete_workspace"
	MutationTagWorkspace    Mutation = "tag_workspace"
	MutationPushEvent       Mutation = "push_event"
)

// KeysFor is the static invalidation table. It maps a mutation to the keys
// it must purge for the given owner and workspace.
func KeysFor(m Mutation, ownerID, workspaceID int64) []string {
	switch m {
	case MutationImportWorkspace:
		return []string{DiscoveryListKey(ownerID), ActiveListKey(ownerID)}
	case MutationUpdateWorkspace, MutationTagWorkspace, MutationPushEvent:
		return []string{WorkspaceDetailKey(workspaceID), ActiveListKey(ownerID)}
	case MutationDeleteWorkspace:
		return []string{
			WorkspaceDetailKey(workspaceID),
			ActiveListKey(ownerID),
			DiscoveryListKey(ownerID),
		}
	}
	return nil
}

// Invalidator purges keys after a committed mutation. It only ever deletes,
// never repopulates, and it never fails the caller: a purge that cannot
// reach the backend is logged and the stale entry ages out by TTL.
type Invalidator struct {
	backend Backend
	logger  *slog.Logger
}

func NewInvalidator(backend Backend, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{backend: backend, logger: logger}
}

// Invalidate purges the keys the table assigns to the mutation. Call it
// only after the triggering write is durably committed.
func (i *Invalidator) Invalidate(ctx context.Context, m Mutation, ownerID, workspaceID int64) {
	keys := KeysFor(m, ownerID, workspaceID)
	if len(keys) == 0 {
		return
	}
	if err := i.backend.Del(ctx, keys...); err != nil {
		i.logger.WarnContext(ctx, "cache invalidation failed; entries expire by TTL",
			"mutation", string(m), "keys", keys, "error", err)
	}
}
