package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/handlers"
)

func registerAuditRoutes(api *gin.RouterGroup, handler *handlers.AuditHandler, requireAdmin gin.HandlerFunc) {
	api.GET("/audit", requireAdmin, handler.List)
}
