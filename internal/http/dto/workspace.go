package dto

import (
	"time"

	"dirhub.app/server/internal/model"
	"dirhub.app/server/internal/service"
)

type ImportWorkspaceRequest struct {
	ExternalRef string  `json:"external_ref" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Language    *string `json:"language"`
}

func (r ImportWorkspaceRequest) ToParams() service.ImportParams {
	return service.ImportParams{
		ExternalRef: r.ExternalRef,
		Name:        r.Name,
		Description: r.Description,
		URL:         r.URL,
		Language:    r.Language,
	}
}

type UpdateWorkspaceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type AddTagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

type MemberResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

type ChannelResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type WorkspaceResponse struct {
	ID          int64             `json:"id"`
	ExternalRef string            `json:"external_ref"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	URL         *string           `json:"url,omitempty"`
	Language    *string           `json:"language,omitempty"`
	OwnerID     int64             `json:"owner_id"`
	Members     []MemberResponse  `json:"members"`
	Channels    []ChannelResponse `json:"channels"`
	Tags        []string          `json:"tags"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func ToWorkspaceResponse(ws *model.Workspace) WorkspaceResponse {
	members := make([]MemberResponse, len(ws.Members))
	for i, m := range ws.Members {
		members[i] = MemberResponse{UserID: m.UserID, Role: string(m.Role)}
	}
	channels := make([]ChannelResponse, len(ws.Channels))
	for i, ch := range ws.Channels {
		channels[i] = ChannelResponse{ID: ch.ID, Name: ch.Name}
	}
	return WorkspaceResponse{
		ID:          ws.ID,
		ExternalRef: ws.ExternalRef,
		Name:        ws.Name,
		Description: ws.Description,
		URL:         ws.URL,
		Language:    ws.Language,
		OwnerID:     ws.OwnerID,
		Members:     members,
		Channels:    channels,
		Tags:        ws.Tags,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
	}
}

// WebhookSetupResponse carries what the owner needs to configure the
// repository's webhook on GitHub. The secret is returned once, at import;
// it never appears on workspace reads.
type WebhookSetupResponse struct {
	URL    string `json:"url,omitempty"`
	Secret string `json:"secret"`
}

type ImportWorkspaceResponse struct {
	WorkspaceResponse
	Webhook WebhookSetupResponse `json:"webhook"`
}

func ToImportWorkspaceResponse(ws *model.Workspace, receiverURL string) ImportWorkspaceResponse {
	return ImportWorkspaceResponse{
		WorkspaceResponse: ToWorkspaceResponse(ws),
		Webhook: WebhookSetupResponse{
			URL:    receiverURL,
			Secret: ws.WebhookSecret,
		},
	}
}

func ToWorkspaceResponses(workspaces []model.Workspace) []WorkspaceResponse {
	result := make([]WorkspaceResponse, len(workspaces))
	for i := range workspaces {
		result[i] = ToWorkspaceResponse(&workspaces[i])
	}
	return result
}
