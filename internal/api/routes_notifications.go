package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/handlers"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler, requireAdmin gin.HandlerFunc) {
	notifications := api.Group("/notifications")
	{
		notifications.GET("", handler.List)
		notifications.GET("/unread-count", handler.UnreadCount)
		notifications.POST("/:id/read", handler.MarkRead)
		notifications.POST("", requireAdmin, handler.Announce)
		notifications.GET("/all", requireAdmin, handler.ListAll)
		notifications.DELETE("/:id", requireAdmin, handler.Delete)
	}
}
