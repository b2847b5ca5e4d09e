package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/middleware"
	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/internal/services"
	"github.com/charlesng35/campushub/pkg/errors"
	"github.com/charlesng35/campushub/pkg/response"
)

// ContestHandler exposes the contest lifecycle and registration endpoints.
type ContestHandler struct {
	contests *services.ContestService
}

// NewContestHandler constructs a contest handler.
func NewContestHandler(contests *services.ContestService) *ContestHandler {
	return &ContestHandler{contests: contests}
}

type createContestRequest struct {
	Title                string    `json:"title" validate:"required,min=1,max=200"`
	Description          string    `json:"description" validate:"max=5000"`
	StartDate            time.Time `json:"start_date" validate:"required"`
	EndDate              time.Time `json:"end_date" validate:"required"`
	RegistrationDeadline time.Time `json:"registration_deadline" validate:"required"`
	EntryFee             int64     `json:"entry_fee" validate:"gte=0"`
	MaxParticipants      *int      `json:"max_participants" validate:"omitempty,gt=0"`
}

type updateContestRequest struct {
	Title                *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description          *string    `json:"description" validate:"omitempty,max=5000"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	EntryFee             *int64     `json:"entry_fee" validate:"omitempty,gte=0"`
	MaxParticipants      *int       `json:"max_participants" validate:"omitempty,gt=0"`
}

// Create stores a new contest (admin).
func (h *ContestHandler) Create(c *gin.Context) {
	var req createContestRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contest, err := h.contests.Create(requestContext(c), services.CreateContestInput{
		Title:                req.Title,
		Description:          req.Description,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		EntryFee:             req.EntryFee,
		MaxParticipants:      req.MaxParticipants,
		CreatedBy:            c.GetString(middleware.CtxUserIDKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, contest)
}

// List returns contests with derived statuses.
func (h *ContestHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	contests, total, err := h.contests.List(requestContext(c), services.ListContestsInput{
		Status:   models.ContestStatus(strings.TrimSpace(c.Query("status"))),
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, contests, response.NewMeta(page, perPage, total))
}

// Get returns one contest with its derived status.
func (h *ContestHandler) Get(c *gin.Context) {
	contest, err := h.contests.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// Register signs the caller up. The response carries the pending payment
// when the contest charges an entry fee.
func (h *ContestHandler) Register(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	result, err := h.contests.Register(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := gin.H{"contest": result.Contest}
	if result.Payment != nil {
		payload["payment"] = result.Payment
	}
	response.Success(c, http.StatusCreated, payload)
}

// Update applies admin edits and notifies participants.
func (h *ContestHandler) Update(c *gin.Context) {
	var req updateContestRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contest, err := h.contests.Update(requestContext(c), c.Param("id"), services.UpdateContestInput{
		Title:                req.Title,
		Description:          req.Description,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		EntryFee:             req.EntryFee,
		MaxParticipants:      req.MaxParticipants,
		ActorID:              c.GetString(middleware.CtxUserIDKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// Cancel moves a contest into its terminal cancelled state (admin).
func (h *ContestHandler) Cancel(c *gin.Context) {
	contest, err := h.contests.Cancel(requestContext(c), c.Param("id"), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// Delete removes a contest outright (admin).
func (h *ContestHandler) Delete(c *gin.Context) {
	if err := h.contests.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
