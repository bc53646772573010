package store

import (
	"context"
	"errors"
	"time"

	"dirhub.app/server/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint rejects a write,
// e.g. importing an external reference that is already bound.
var ErrConflict = errors.New("conflict")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	AppendOwnedWorkspace(ctx context.Context, userID, workspaceID int64) error
	RemoveOwnedWorkspace(ctx context.Context, userID, workspaceID int64) error
}

// WorkspaceStore defines the contract for workspace data access
type WorkspaceStore interface {
	GetByID(ctx context.Context, id int64) (*model.Workspace, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*model.Workspace, error)
	Create(ctx context.Context, ws *model.Workspace) error
	Update(ctx context.Context, ws *model.Workspace) error
	AddTag(ctx context.Context, id int64, tag string) (*model.Workspace, error)
	Delete(ctx context.Context, id int64) error
	ListByMember(ctx context.Context, userID int64) ([]model.Workspace, error)
	// ListByMemberFiltered serves the free-form filtered view. It is never
	// cached; filters go straight to the primary store.
	ListByMemberFiltered(ctx context.Context, userID int64, search, tag string) ([]model.Workspace, error)
	ListExternalRefsByOwner(ctx context.Context, ownerID int64) ([]string, error)
	// FilterExternalRefs returns the subset of refs already bound to a
	// workspace, regardless of owner.
	FilterExternalRefs(ctx context.Context, refs []string) ([]string, error)
}

// ActivityLogStore defines the contract for the append-only audit trail
type ActivityLogStore interface {
	Create(ctx context.Context, entry *model.ActivityLogEntry) error
	ListForActor(ctx context.Context, actorID int64, workspaceIDs []int64, limit, offset int32) ([]model.ActivityLogEntry, error)
	ListForWorkspace(ctx context.Context, workspaceID int64, limit, offset int32) ([]model.ActivityLogEntry, error)
	CountForActor(ctx context.Context, actorID int64) (int64, error)
	// CountPerDay buckets an actor's entries by calendar day from since
	// onwards, oldest day first.
	CountPerDay(ctx context.Context, actorID int64, since time.Time) ([]model.ActivityDay, error)
	DeleteByActor(ctx context.Context, actorID int64) error
}

// RawEventStore defines the contract for verified webhook audit copies
type RawEventStore interface {
	Create(ctx context.Context, event *model.RawEvent) error
	ListByWorkspace(ctx context.Context, workspaceID int64, limit int32) ([]model.RawEvent, error)
}
