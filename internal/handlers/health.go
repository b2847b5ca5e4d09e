package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/monitoring"
	"github.com/charlesng35/campushub/pkg/response"
)

// Health returns a handler that evaluates the registered dependency probes.
// Without a registry it degenerates to a plain liveness ping.
func Health(reg *monitoring.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reg == nil {
			response.Success(c, http.StatusOK, gin.H{"status": "ok"})
			return
		}

		report := reg.Evaluate(c.Request.Context())
		status := http.StatusOK
		if report.Status == monitoring.StatusDown {
			status = http.StatusServiceUnavailable
		}
		response.Success(c, status, report)
	}
}
