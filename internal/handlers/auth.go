package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/middleware"
	"github.com/charlesng35/campushub/internal/services"
	"github.com/charlesng35/campushub/pkg/errors"
	"github.com/charlesng35/campushub/pkg/response"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	users *services.UserService
	audit *services.AuditService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(users *services.UserService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{users: users, audit: audit}
}

type registerRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	StudentID string `json:"student_id" validate:"omitempty,campusid"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a student account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		StudentID: req.StudentID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.logAudit(c, &user.ID, "auth.register", "success")
	response.Success(c, http.StatusCreated, user)
}

// Login verifies credentials and returns an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		h.logAudit(c, nil, "auth.login", "failure")
		response.Error(c, err)
		return
	}

	h.logAudit(c, &result.User.ID, "auth.login", "success")
	response.Success(c, http.StatusOK, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (h *AuthHandler) logAudit(c *gin.Context, userID *string, action, result string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(requestContext(c), services.AuditEntry{
		UserID:    userID,
		Action:    action,
		Resource:  "session",
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}
