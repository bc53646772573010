package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"dirhub.app/server/core/db"
	"dirhub.app/server/internal/model"
)

type rawEventStore struct {
	q db.Queryer
}

func newRawEventStore(q db.Queryer) RawEventStore {
	return &rawEventStore{q: q}
}

func (s *rawEventStore) Create(ctx context.Context, event *model.RawEvent) error {
	// No dedupe key, no upsert: every verified delivery becomes its own
	// row. The jsonb cast may renormalize key order relative to the wire
	// body; signatures are only ever checked pre-insert.
	row := s.q.QueryRow(ctx, `
		INSERT INTO raw_events (id, workspace_id, event_type, actor_username, payload)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		RETURNING id, workspace_id, event_type, actor_username, payload, created_at`,
		event.ID, event.WorkspaceID, string(event.EventType), event.ActorUsername,
		[]byte(event.Payload))

	created, err := scanRawEvent(row)
	if err != nil {
		return err
	}
	*event = *created
	return nil
}

func (s *rawEventStore) ListByWorkspace(ctx context.Context, workspaceID int64, limit int32) ([]model.RawEvent, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, workspace_id, event_type, actor_username, payload, created_at
		FROM raw_events
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, workspaceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.RawEvent
	for rows.Next() {
		event, err := scanRawEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *event)
	}
	return result, rows.Err()
}

func scanRawEvent(row pgx.Row) (*model.RawEvent, error) {
	var (
		event     model.RawEvent
		eventType string
		payload   []byte
	)
	err := row.Scan(&event.ID, &event.WorkspaceID, &eventType, &event.ActorUsername,
		&payload, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	event.EventType = model.EventType(eventType)
	event.Payload = payload
	return &event, nil
}
