package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dirhub.app/server/internal/service"
)

type GitHubWebhookHandler struct {
	webhookService service.WebhookService
}

func NewGitHubWebhookHandler(webhookService service.WebhookService) *GitHubWebhookHandler {
	return &GitHubWebhookHandler{webhookService: webhookService}
}

// HandleEvent accepts a GitHub webhook delivery. The body bytes are passed to
// the service untouched; the signature was computed over them and any
// re-serialization would break verification.
func (h *GitHubWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	result, err := h.webhookService.Ingest(ctx, service.IngestParams{
		SignatureHeader: c.GetHeader("X-Hub-Signature-256"),
		EventTypeHeader: c.GetHeader("X-GitHub-Event"),
		Payload:         body,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to process github webhook",
				"error", err,
				"event_type", c.GetHeader("X-GitHub-Event"),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		}
		return
	}

	slog.InfoContext(ctx, "github webhook handled",
		"event_type", c.GetHeader("X-GitHub-Event"),
		"outcome", result.Outcome,
	)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
