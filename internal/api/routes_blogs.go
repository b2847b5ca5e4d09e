package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/handlers"
)

func registerBlogRoutes(api *gin.RouterGroup, handler *handlers.BlogHandler, requireAdmin gin.HandlerFunc) {
	blogs := api.Group("/blogs")
	{
		blogs.GET("", handler.List)
		blogs.POST("", handler.Create)
		blogs.GET("/:id", handler.Get)
		blogs.PATCH("/:id", handler.Update)
		blogs.DELETE("/:id", handler.Delete)
		blogs.POST("/:id/review", requireAdmin, handler.Review)
		blogs.GET("/:id/comments", handler.Comments)
		blogs.POST("/:id/comments", handler.AddComment)
	}
}
