package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/services"
	"github.com/charlesng35/campushub/pkg/response"
)

// AuditHandler exposes audit log queries (admin).
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns paginated audit logs, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	opts := services.AuditListOptions{
		Page:     page,
		PageSize: perPage,
		UserID:   strings.TrimSpace(c.Query("user")),
		Action:   strings.TrimSpace(c.Query("action")),
	}
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		if parsed, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Since = &parsed
		}
	}

	logs, total, err := h.audit.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, logs, response.NewMeta(page, perPage, total))
}
