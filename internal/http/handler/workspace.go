package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dirhub.app/server/core/config"
	"dirhub.app/server/internal/http/dto"
	"dirhub.app/server/internal/http/middleware"
	"dirhub.app/server/internal/service"
	"dirhub.app/server/internal/store"
)

type WorkspaceHandler struct {
	workspaceService service.WorkspaceService
	// webhookURL is the externally reachable delivery endpoint, empty when
	// WEBHOOK_BASE_URL is not configured.
	webhookURL string
}

func NewWorkspaceHandler(workspaceService service.WorkspaceService, webhookCfg config.WebhookConfig) *WorkspaceHandler {
	h := &WorkspaceHandler{workspaceService: workspaceService}
	if webhookCfg.BaseURL != "" {
		h.webhookURL = strings.TrimSuffix(webhookCfg.BaseURL, "/") + "/webhooks/github"
	}
	return h
}

func (h *WorkspaceHandler) Discovery(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	repos, err := h.workspaceService.Discovery(ctx, actor)
	if err != nil {
		slog.ErrorContext(ctx, "discovery failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to list provider repositories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": repos})
}

func (h *WorkspaceHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	var req dto.ImportWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, err := h.workspaceService.Import(ctx, actor, req.ToParams())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "repository already imported"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "import failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to import workspace"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToImportWorkspaceResponse(ws, h.webhookURL))
}

func (h *WorkspaceHandler) Explore(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.workspaceService.Explore(ctx, service.ExploreParams{
		Search: c.Query("q"),
		Tag:    c.Query("tag"),
		Page:   queryInt32(c, "page", 1),
	})
	if err != nil {
		slog.ErrorContext(ctx, "explore failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to search provider repositories"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *WorkspaceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	workspaces, err := h.workspaceService.ListActive(ctx, actor,
		c.Query("search"), c.Query("tag"))
	if err != nil {
		slog.ErrorContext(ctx, "listing workspaces failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list workspaces"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToWorkspaceResponses(workspaces)})
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := workspaceID(c)
	if !ok {
		return
	}

	ws, err := h.workspaceService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		slog.ErrorContext(ctx, "fetching workspace failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch workspace"})
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	id, ok := workspaceID(c)
	if !ok {
		return
	}

	var req dto.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, err := h.workspaceService.Update(ctx, actor, id, service.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		slog.ErrorContext(ctx, "updating workspace failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update workspace"})
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) AddTag(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	id, ok := workspaceID(c)
	if !ok {
		return
	}

	var req dto.AddTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, err := h.workspaceService.AddTag(ctx, actor, id, req.Tag)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "tagging workspace failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to tag workspace"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	id, ok := workspaceID(c)
	if !ok {
		return
	}

	if err := h.workspaceService.Delete(ctx, actor, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		slog.ErrorContext(ctx, "deleting workspace failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete workspace"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WorkspaceHandler) Sync(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	id, ok := workspaceID(c)
	if !ok {
		return
	}

	ws, err := h.workspaceService.Sync(ctx, actor, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		slog.ErrorContext(ctx, "syncing workspace failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to sync with provider"})
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) ListEvents(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := workspaceID(c)
	if !ok {
		return
	}

	limit := int32(50)
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil {
			limit = int32(v)
		}
	}

	events, err := h.workspaceService.ListEvents(ctx, id, limit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		slog.ErrorContext(ctx, "listing workspace events failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToRawEventResponses(events)})
}

func workspaceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
		return 0, false
	}
	return id, true
}
