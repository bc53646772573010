package model

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventTypePush         EventType = "push"
	EventTypePullRequest  EventType = "pull_request"
	EventTypeIssues       EventType = "issues"
	EventTypeIssueComment EventType = "issue_comment"
	EventTypeFork         EventType = "fork"
	EventTypeStar         EventType = "star"
	EventTypeWatch        EventType = "watch"
	EventTypePing         EventType = "ping"
)

// RawEvent is the audit copy of a verified webhook delivery. Exactly one
// is persisted per verified delivery; redeliveries are not deduplicated.
// The signature is checked against the raw request body before persistence;
// the payload column is jsonb, so the stored form may differ from the wire
// bytes in key order and whitespace.
type RawEvent struct {
	ID            int64           `json:"id"`
	WorkspaceID   int64           `json:"workspace_id"`
	EventType     EventType       `json:"event_type"`
	ActorUsername string          `json:"actor_username"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}
