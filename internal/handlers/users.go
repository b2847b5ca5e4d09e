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

// UserHandler exposes account management endpoints. Listing, activation and
// role changes sit behind the admin gate; profile editing is self-service.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs a user handler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type updateProfileRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=100"`
	Avatar *string `json:"avatar" validate:"omitempty,max=500"`
	Bio    *string `json:"bio" validate:"omitempty,max=2000"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student admin"`
}

// List returns paginated accounts (admin).
func (h *UserHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	users, total, err := h.users.List(requestContext(c), services.ListUsersInput{
		Role:     models.Role(strings.TrimSpace(c.Query("role"))),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, users, response.NewMeta(page, perPage, total))
}

// Get returns a single account (admin).
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// UpdateProfile applies self-service profile edits for the caller.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(requestContext(c), userID, services.UpdateProfileInput{
		Name:   req.Name,
		Avatar: req.Avatar,
		Bio:    req.Bio,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// SetActive toggles an account's active flag (admin).
func (h *UserHandler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	actorID := c.GetString(middleware.CtxUserIDKey)
	user, err := h.users.SetActive(requestContext(c), c.Param("id"), *req.Active, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// ChangeRole switches an account between student and admin (admin).
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	actorID := c.GetString(middleware.CtxUserIDKey)
	user, err := h.users.ChangeRole(requestContext(c), c.Param("id"), models.Role(req.Role), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// Delete removes an account (admin).
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
