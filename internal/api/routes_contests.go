package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/handlers"
)

func registerContestRoutes(api *gin.RouterGroup, handler *handlers.ContestHandler, requireAdmin gin.HandlerFunc) {
	contests := api.Group("/contests")
	{
		contests.GET("", handler.List)
		contests.GET("/:id", handler.Get)
		contests.POST("/:id/register", handler.Register)
		contests.POST("", requireAdmin, handler.Create)
		contests.PATCH("/:id", requireAdmin, handler.Update)
		contests.POST("/:id/cancel", requireAdmin, handler.Cancel)
		contests.DELETE("/:id", requireAdmin, handler.Delete)
	}
}
