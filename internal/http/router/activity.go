package router

import (
	"github.com/gin-gonic/gin"

	"dirhub.app/server/internal/http/handler"
)

func ActivityRouter(router *gin.RouterGroup, handler *handler.ActivityHandler) {
	router.GET("/feed", handler.Feed)
	router.GET("/heatmap", handler.Heatmap)
	router.DELETE("", handler.Clear)
}
