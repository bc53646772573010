package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dirhub.app/server/core/db"
	"dirhub.app/server/internal/model"
)

const userColumns = `id, username, external_id, email, avatar_url, owned_workspace_ids,
	created_at, updated_at`

type userStore struct {
	q db.Queryer
}

func newUserStore(q db.Queryer) UserStore {
	return &userStore{q: q}
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO users (id, username, external_id, email, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		user.ID, user.Username, user.ExternalID, user.Email, user.AvatarURL)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	*user = *created
	return nil
}

func (s *userStore) AppendOwnedWorkspace(ctx context.Context, userID, workspaceID int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE users
		SET owned_workspace_ids = array_append(owned_workspace_ids, $2),
			updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(owned_workspace_ids))`,
		userID, workspaceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the user is missing or the id is already present; only the
		// former is an error.
		if _, err := s.GetByID(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *userStore) RemoveOwnedWorkspace(ctx context.Context, userID, workspaceID int64) error {
	_, err := s.q.Exec(ctx, `
		UPDATE users
		SET owned_workspace_ids = array_remove(owned_workspace_ids, $2),
			updated_at = now()
		WHERE id = $1`,
		userID, workspaceID)
	return err
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Username, &user.ExternalID, &user.Email,
		&user.AvatarURL, &user.OwnedWorkspaceIDs, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
