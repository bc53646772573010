package router

import (
	"github.com/gin-gonic/gin"

	"dirhub.app/server/core/config"
	"dirhub.app/server/internal/http/handler"
	"dirhub.app/server/internal/http/handler/webhook"
	"dirhub.app/server/internal/http/middleware"
	"dirhub.app/server/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services, webhookCfg config.WebhookConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Webhook deliveries authenticate by HMAC signature, not by identity.
	githubWebhookHandler := webhook.NewGitHubWebhookHandler(services.Webhooks())
	WebhookRouter(router.Group("/webhooks"), githubWebhookHandler)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity())
	{
		workspaceHandler := handler.NewWorkspaceHandler(services.Workspaces(), webhookCfg)
		activityHandler := handler.NewActivityHandler(services.Activity())

		WorkspaceRouter(v1.Group("/workspaces"), workspaceHandler, activityHandler)
		ActivityRouter(v1.Group("/activity"), activityHandler)
	}
}
