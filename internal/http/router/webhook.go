package router

import (
	"github.com/gin-gonic/gin"

	"dirhub.app/server/internal/http/handler/webhook"
)

func WebhookRouter(router *gin.RouterGroup, handler *webhook.GitHubWebhookHandler) {
	router.POST("/github", handler.HandleEvent)
}
