package store

import (
	"dirhub.app/server/core/db"
)

// Stores bundles all store implementations over a single Queryer. Bind it
// to the pool for standalone operations, or to a transaction inside
// TxRunner.WithTx so every store shares the same atomic unit.
type Stores struct {
	q db.Queryer
}

func NewStores(q db.Queryer) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.q)
}

func (s *Stores) Workspaces() WorkspaceStore {
	return newWorkspaceStore(s.q)
}

func (s *Stores) ActivityLogs() ActivityLogStore {
	return newActivityLogStore(s.q)
}

func (s *Stores) RawEvents() RawEventStore {
	return newRawEventStore(s.q)
}
