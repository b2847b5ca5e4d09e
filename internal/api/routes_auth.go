package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/handlers"
)

func registerAuthRoutes(r *gin.Engine, api *gin.RouterGroup, handler *handlers.AuthHandler) {
	// Register and login stay outside the authenticated group.
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
	}

	api.GET("/auth/me", handler.Me)
}
