package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dirhub.app/server/core/db"
	"dirhub.app/server/internal/model"
)

const workspaceColumns = `id, external_ref, name, description, url, language, owner_id,
	members, channels, tags, webhook_secret, created_at, updated_at`

type workspaceStore struct {
	q db.Queryer
}

func newWorkspaceStore(q db.Queryer) WorkspaceStore {
	return &workspaceStore{q: q}
}

func (s *workspaceStore) GetByID(ctx context.Context, id int64) (*model.Workspace, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

func (s *workspaceStore) GetByExternalRef(ctx context.Context, externalRef string) (*model.Workspace, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE external_ref = $1`, externalRef)
	return scanWorkspace(row)
}

func (s *workspaceStore) Create(ctx context.Context, ws *model.Workspace) error {
	members, err := json.Marshal(ws.Members)
	if err != nil {
		return fmt.Errorf("encoding members: %w", err)
	}
	channels, err := json.Marshal(ws.Channels)
	if err != nil {
		return fmt.Errorf("encoding channels: %w", err)
	}

	row := s.q.QueryRow(ctx, `
		INSERT INTO workspaces (id, external_ref, name, description, url, language,
			owner_id, members, channels, tags, webhook_secret)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11)
		RETURNING `+workspaceColumns,
		ws.ID, ws.ExternalRef, ws.Name, ws.Description, ws.URL, ws.Language,
		ws.OwnerID, members, channels, ws.Tags, ws.WebhookSecret)

	created, err := scanWorkspace(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	*ws = *created
	return nil
}

func (s *workspaceStore) Update(ctx context.Context, ws *model.Workspace) error {
	row := s.q.QueryRow(ctx, `
		UPDATE workspaces
		SET name = $2, description = $3, url = $4, language = $5, tags = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING `+workspaceColumns,
		ws.ID, ws.Name, ws.Description, ws.URL, ws.Language, ws.Tags)

	updated, err := scanWorkspace(row)
	if err != nil {
		return err
	}
	*ws = *updated
	return nil
}

func (s *workspaceStore) AddTag(ctx context.Context, id int64, tag string) (*model.Workspace, error) {
	// array_append only when absent, mirroring a set add
	row := s.q.QueryRow(ctx, `
		UPDATE workspaces
		SET tags = CASE WHEN $2 = ANY(tags) THEN tags ELSE array_append(tags, $2) END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+workspaceColumns, id, tag)
	return scanWorkspace(row)
}

func (s *workspaceStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *workspaceStore) ListByMember(ctx context.Context, userID int64) ([]model.Workspace, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE members @> jsonb_build_array(jsonb_build_object('user_id', $1::bigint))
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkspaces(rows)
}

func (s *workspaceStore) ListByMemberFiltered(ctx context.Context, userID int64, search, tag string) ([]model.Workspace, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE members @> jsonb_build_array(jsonb_build_object('user_id', $1::bigint))
			AND ($2 = '' OR name ILIKE '%' || $2 || '%')
			AND ($3 = '' OR $3 = ANY(tags))
		ORDER BY updated_at DESC`, userID, search, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkspaces(rows)
}

func (s *workspaceStore) ListExternalRefsByOwner(ctx context.Context, ownerID int64) ([]string, error) {
	rows, err := s.q.Query(ctx,
		`SELECT external_ref FROM workspaces WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *workspaceStore) FilterExternalRefs(ctx context.Context, refs []string) ([]string, error) {
	rows, err := s.q.Query(ctx,
		`SELECT external_ref FROM workspaces WHERE external_ref = ANY($1)`, refs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		existing = append(existing, ref)
	}
	return existing, rows.Err()
}

func scanWorkspace(row pgx.Row) (*model.Workspace, error) {
	var (
		ws       model.Workspace
		members  []byte
		channels []byte
	)
	err := row.Scan(&ws.ID, &ws.ExternalRef, &ws.Name, &ws.Description, &ws.URL,
		&ws.Language, &ws.OwnerID, &members, &channels, &ws.Tags,
		&ws.WebhookSecret, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(members, &ws.Members); err != nil {
		return nil, fmt.Errorf("decoding members: %w", err)
	}
	if err := json.Unmarshal(channels, &ws.Channels); err != nil {
		return nil, fmt.Errorf("decoding channels: %w", err)
	}
	return &ws, nil
}

func scanWorkspaces(rows pgx.Rows) ([]model.Workspace, error) {
	var result []model.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ws)
	}
	return result, rows.Err()
}
