package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler, requireAdmin gin.HandlerFunc) {
	api.PATCH("/profile", handler.UpdateProfile)

	users := api.Group("/users", requireAdmin)
	{
		users.GET("", handler.List)
		users.GET("/:id", handler.Get)
		users.PATCH("/:id/active", handler.SetActive)
		users.PATCH("/:id/role", handler.ChangeRole)
		users.DELETE("/:id", handler.Delete)
	}
}
