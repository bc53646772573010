package model

import "time"

// TargetType is the fixed set of entities an activity entry can point at.
// Action labels stay free text on purpose: the audit trail favors
// flexibility over a closed verb vocabulary.
type TargetType string

const (
	TargetTypeWorkspace   TargetType = "workspace"
	TargetTypeFile        TargetType = "file"
	TargetTypeTag         TargetType = "tag"
	TargetTypeUser        TargetType = "user"
	TargetTypeMessage     TargetType = "message"
	TargetTypeComment     TargetType = "comment"
	TargetTypeIssue       TargetType = "issue"
	TargetTypePullRequest TargetType = "pull_request"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetTypeWorkspace, TargetTypeFile, TargetTypeTag, TargetTypeUser,
		TargetTypeMessage, TargetTypeComment, TargetTypeIssue, TargetTypePullRequest:
		return true
	}
	return false
}

// ActivityDay is one heatmap bucket: a calendar day ("2006-01-02") and the
// number of entries an actor recorded on it. Days without entries are
// absent, not zero.
type ActivityDay struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ActivityLogEntry is an immutable audit record. Entries are only ever
// appended; the single bulk deletion is "clear all entries for one actor".
type ActivityLogEntry struct {
	ID          int64      `json:"id"`
	ActorID     int64      `json:"actor_id"`
	WorkspaceID *int64     `json:"workspace_id,omitempty"`
	Action      string     `json:"action"`
	TargetType  TargetType `json:"target_type"`
	TargetID    int64      `json:"target_id"`
	Message     string     `json:"message"`
	CreatedAt   time.Time  `json:"created_at"`
}
