package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"dirhub.app/server/core/db"
	"dirhub.app/server/internal/model"
)

const activityLogColumns = `id, actor_id, workspace_id, action, target_type, target_id,
	message, created_at`

type activityLogStore struct {
	q db.Queryer
}

func newActivityLogStore(q db.Queryer) ActivityLogStore {
	return &activityLogStore{q: q}
}

func (s *activityLogStore) Create(ctx context.Context, entry *model.ActivityLogEntry) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO activity_logs (id, actor_id, workspace_id, action, target_type,
			target_id, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+activityLogColumns,
		entry.ID, entry.ActorID, entry.WorkspaceID, entry.Action,
		string(entry.TargetType), entry.TargetID, entry.Message)

	created, err := scanActivityLogEntry(row)
	if err != nil {
		return err
	}
	*entry = *created
	return nil
}

func (s *activityLogStore) ListForActor(ctx context.Context, actorID int64, workspaceIDs []int64, limit, offset int32) ([]model.ActivityLogEntry, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+activityLogColumns+`
		FROM activity_logs
		WHERE actor_id = $1 OR workspace_id = ANY($2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		actorID, workspaceIDs, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ActivityLogEntry
	for rows.Next() {
		entry, err := scanActivityLogEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func (s *activityLogStore) ListForWorkspace(ctx context.Context, workspaceID int64, limit, offset int32) ([]model.ActivityLogEntry, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+activityLogColumns+`
		FROM activity_logs
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		workspaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ActivityLogEntry
	for rows.Next() {
		entry, err := scanActivityLogEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func (s *activityLogStore) CountForActor(ctx context.Context, actorID int64) (int64, error) {
	var count int64
	err := s.q.QueryRow(ctx,
		`SELECT count(*) FROM activity_logs WHERE actor_id = $1`, actorID).Scan(&count)
	return count, err
}

func (s *activityLogStore) CountPerDay(ctx context.Context, actorID int64, since time.Time) ([]model.ActivityDay, error) {
	rows, err := s.q.Query(ctx, `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, count(*)
		FROM activity_logs
		WHERE actor_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day`,
		actorID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ActivityDay
	for rows.Next() {
		var day model.ActivityDay
		if err := rows.Scan(&day.Date, &day.Count); err != nil {
			return nil, err
		}
		result = append(result, day)
	}
	return result, rows.Err()
}

func (s *activityLogStore) DeleteByActor(ctx context.Context, actorID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM activity_logs WHERE actor_id = $1`, actorID)
	return err
}

func scanActivityLogEntry(row pgx.Row) (*model.ActivityLogEntry, error) {
	var (
		entry      model.ActivityLogEntry
		targetType string
	)
	err := row.Scan(&entry.ID, &entry.ActorID, &entry.WorkspaceID, &entry.Action,
		&targetType, &entry.TargetID, &entry.Message, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	entry.TargetType = model.TargetType(targetType)
	return &entry, nil
}
