package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/middleware"
	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/internal/services"
	"github.com/charlesng35/campushub/pkg/errors"
	"github.com/charlesng35/campushub/pkg/response"
)

// NotificationHandler exposes the notification feed and the admin
// announcement surface.
type NotificationHandler struct {
	store      *services.NotificationService
	dispatcher *services.Dispatcher
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(store *services.NotificationService, dispatcher *services.Dispatcher) *NotificationHandler {
	return &NotificationHandler{store: store, dispatcher: dispatcher}
}

type announceRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Message     string   `json:"message" validate:"max=5000"`
	Recipients  string   `json:"recipients" validate:"required,oneof=all specific"`
	TargetUsers []string `json:"target_users" validate:"omitempty,dive,uuid4"`
	Urgency     string   `json:"urgency" validate:"omitempty,oneof=info important urgent"`
}

// List returns the caller's feed with the viewer-derived read flag.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 25)
	unreadOnly := strings.EqualFold(c.Query("unread"), "true")

	items, total, err := h.store.ListForUser(requestContext(c), services.ListNotificationsInput{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Page:       page,
		PageSize:   perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, response.NewMeta(page, perPage, total))
}

// UnreadCount returns how many notifications remain unread for the caller.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	count, err := h.store.UnreadCount(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread": count})
}

// MarkRead flips the caller's read flag on one notification.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	dto, err := h.store.MarkRead(requestContext(c), strings.TrimSpace(c.Param("id")), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// Announce creates and dispatches an announcement (admin).
func (h *NotificationHandler) Announce(c *gin.Context) {
	var req announceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	senderID := c.GetString(middleware.CtxUserIDKey)

	event := services.Event{
		Title:    req.Title,
		Message:  req.Message,
		SenderID: senderID,
		Urgency:  models.Urgency(req.Urgency),
		Relation: models.General(),
	}
	if req.Recipients == string(models.RecipientsAll) {
		event.Broadcast = models.RoleStudent
	} else {
		event.Targets = req.TargetUsers
	}

	notification, err := h.dispatcher.Notify(requestContext(c), event)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, notification)
}

// ListAll pages through every notification record (admin).
func (h *NotificationHandler) ListAll(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	items, total, err := h.store.ListAll(requestContext(c), services.ListAllNotificationsInput{
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, response.NewMeta(page, perPage, total))
}

// Delete removes a notification record (admin).
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(requestContext(c), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
