package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dirhub.app/server/internal/http/dto"
	"dirhub.app/server/internal/http/middleware"
	"dirhub.app/server/internal/service"
	"dirhub.app/server/internal/store"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) Feed(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	page := queryInt32(c, "page", 1)
	limit := queryInt32(c, "limit", 20)

	entries, total, err := h.activityService.Feed(ctx, actor, page, limit)
	if err != nil {
		slog.ErrorContext(ctx, "fetching activity feed failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activity feed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityFeedResponse(entries, total, page))
}

func (h *ActivityHandler) ForWorkspace(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := workspaceID(c)
	if !ok {
		return
	}

	entries, err := h.activityService.ForWorkspace(ctx, id, queryInt32(c, "page", 1))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		slog.ErrorContext(ctx, "fetching workspace activity failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch workspace activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToActivityEntryResponses(entries)})
}

func (h *ActivityHandler) Heatmap(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	days, err := h.activityService.Heatmap(ctx, actor)
	if err != nil {
		slog.ErrorContext(ctx, "fetching contribution heatmap failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch heatmap"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": days})
}

func (h *ActivityHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentIdentity(c)

	if err := h.activityService.ClearForActor(ctx, actor); err != nil {
		slog.ErrorContext(ctx, "clearing activity failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryInt32(c *gin.Context, key string, fallback int32) int32 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
