package model

import "time"

type MemberRole string

const (
	MemberRoleOwner       MemberRole = "owner"
	MemberRoleMaintainer  MemberRole = "maintainer"
	MemberRoleContributor MemberRole = "contributor"
	MemberRoleViewer      MemberRole = "viewer"
)

// Member is a value type owned by its Workspace. It has no identity or
// lifecycle outside the aggregate.
type Member struct {
	UserID int64      `json:"user_id"`
	Role   MemberRole `json:"role"`
}

type Channel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Workspace is the local aggregate for an imported GitHub repository.
// ExternalRef is the stable repository id assigned by the provider and is
// globally unique across workspaces.
type Workspace struct {
	ID            int64     `json:"id"`
	ExternalRef   string    `json:"external_ref"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	URL           *string   `json:"url,omitempty"`
	Language      *string   `json:"language,omitempty"`
	OwnerID       int64     `json:"owner_id"`
	Members       []Member  `json:"members"`
	Channels      []Channel `json:"channels"`
	Tags          []string  `json:"tags"`
	WebhookSecret string    `json:"-"` // never exposed in API responses
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Owner returns the member holding the owner role. Exactly one exists at
// creation time.
func (w *Workspace) Owner() *Member {
	for i := range w.Members {
		if w.Members[i].Role == MemberRoleOwner {
			return &w.Members[i]
		}
	}
	return nil
}

func (w *Workspace) HasMember(userID int64) bool {
	for _, m := range w.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (w *Workspace) HasTag(tag string) bool {
	for _, t := range w.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
