package model

import "time"

type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	ExternalID        string    `json:"external_id"`
	Email             *string   `json:"email,omitempty"`
	AvatarURL         *string   `json:"avatar_url,omitempty"`
	OwnedWorkspaceIDs []int64   `json:"owned_workspace_ids"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Identity is the caller identity passed explicitly into every mutating
// operation. There is no ambient per-process current user.
type Identity struct {
	UserID   int64
	Username string
}
