package dto

import (
	"time"

	"dirhub.app/server/internal/model"
)

type ActivityEntryResponse struct {
	ID          int64     `json:"id"`
	ActorID     int64     `json:"actor_id"`
	WorkspaceID *int64    `json:"workspace_id,omitempty"`
	Action      string    `json:"action"`
	TargetType  string    `json:"target_type"`
	TargetID    int64     `json:"target_id"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

type ActivityFeedResponse struct {
	Entries []ActivityEntryResponse `json:"entries"`
	Total   int64                   `json:"total"`
	Page    int32                   `json:"page"`
}

func ToActivityEntryResponses(entries []model.ActivityLogEntry) []ActivityEntryResponse {
	out := make([]ActivityEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ActivityEntryResponse{
			ID:          e.ID,
			ActorID:     e.ActorID,
			WorkspaceID: e.WorkspaceID,
			Action:      e.Action,
			TargetType:  string(e.TargetType),
			TargetID:    e.TargetID,
			Message:     e.Message,
			Timestamp:   e.CreatedAt,
		}
	}
	return out
}

func ToActivityFeedResponse(entries []model.ActivityLogEntry, total int64, page int32) ActivityFeedResponse {
	return ActivityFeedResponse{
		Entries: ToActivityEntryResponses(entries),
		Total:   total,
		Page:    page,
	}
}
