package dto

import (
	"encoding/json"
	"time"

	"dirhub.app/server/internal/model"
)

type RawEventResponse struct {
	ID            int64           `json:"id"`
	WorkspaceID   int64           `json:"workspace_id"`
	EventType     string          `json:"event_type"`
	ActorUsername string          `json:"actor_username"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

func ToRawEventResponses(events []model.RawEvent) []RawEventResponse {
	out := make([]RawEventResponse, len(events))
	for i, e := range events {
		out[i] = RawEventResponse{
			ID:            e.ID,
			WorkspaceID:   e.WorkspaceID,
			EventType:     string(e.EventType),
			ActorUsername: e.ActorUsername,
			Payload:       e.Payload,
			CreatedAt:     e.CreatedAt,
		}
	}
	return out
}
