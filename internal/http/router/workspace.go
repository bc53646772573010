package router

import (
	"github.com/gin-gonic/gin"

	"dirhub.app/server/internal/http/handler"
)

func WorkspaceRouter(router *gin.RouterGroup, workspaces *handler.WorkspaceHandler, activity *handler.ActivityHandler) {
	router.GET("/discovery", workspaces.Discovery)
	router.GET("/explore", workspaces.Explore)
	router.POST("/import", workspaces.Import)
	router.GET("", workspaces.List)
	router.GET("/:id", workspaces.Get)
	router.PATCH("/:id", workspaces.Update)
	router.POST("/:id/tags", workspaces.AddTag)
	router.POST("/:id/sync", workspaces.Sync)
	router.GET("/:id/events", workspaces.ListEvents)
	router.GET("/:id/activity", activity.ForWorkspace)
	router.DELETE("/:id", workspaces.Delete)
}
