package service

import (
	"context"

	"dirhub.app/server/core/db"
	"dirhub.app/server/internal/store"
)

// StoreProvider is the store surface services operate through. Outside a
// transaction it is the pool-bound Stores bundle; inside TxRunner.WithTx it
// is bound to the transaction.
type StoreProvider interface {
	Users() store.UserStore
	Workspaces() store.WorkspaceStore
	ActivityLogs() store.ActivityLogStore
	RawEvents() store.RawEventStore
}

// TxRunner runs functions within a transaction and provides stores bound to
// that transaction. Everything done through the provided stores commits or
// rolls back as one unit.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(database *db.DB) TxRunner {
	return &dbTxRunner{db: database}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q db.Queryer) error {
		return fn(store.NewStores(q))
	})
}
