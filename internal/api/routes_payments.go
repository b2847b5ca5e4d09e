package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/handlers"
)

func registerPaymentRoutes(api *gin.RouterGroup, handler *handlers.PaymentHandler, requireAdmin gin.HandlerFunc) {
	payments := api.Group("/payments")
	{
		payments.POST("/verify", handler.Verify)
		payments.GET("", handler.List)
		payments.GET("/all", requireAdmin, handler.ListAll)
		payments.GET("/:id", handler.Get)
		payments.POST("/:id/fail", requireAdmin, handler.Fail)
	}
}
