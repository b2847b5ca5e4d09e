package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/handlers"
)

func registerRealtimeRoutes(r *gin.Engine, handler *handlers.RealtimeHandler) {
	// The websocket upgrade authenticates via a query token, not the
	// Authorization header, so it sits outside the authenticated group.
	r.GET("/api/realtime", handler.Stream)
}
