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

// PaymentHandler exposes payment verification and history endpoints. Orders
// are placed through domain flows such as contest registration, never
// directly.
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type verifyPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// Verify reconciles a provider callback relayed by the client after checkout.
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req verifyPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	payment, err := h.payments.Verify(requestContext(c), services.VerifyPaymentInput{
		UserID:    userID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

// Fail marks a pending payment as failed and frees any held contest slot
// (admin).
func (h *PaymentHandler) Fail(c *gin.Context) {
	payment, err := h.payments.Fail(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

// Get returns one payment. Students only see their own.
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, role := callerIdentity(c)

	payment, err := h.payments.Get(requestContext(c), c.Param("id"), userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

// List returns the caller's payment history.
func (h *PaymentHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	payments, total, err := h.payments.List(requestContext(c), services.ListPaymentsInput{
		UserID:   userID,
		Status:   models.PaymentStatus(strings.TrimSpace(c.Query("status"))),
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, payments, response.NewMeta(page, perPage, total))
}

// ListAll pages through every payment record (admin).
func (h *PaymentHandler) ListAll(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	payments, total, err := h.payments.List(requestContext(c), services.ListPaymentsInput{
		UserID:   strings.TrimSpace(c.Query("user")),
		Status:   models.PaymentStatus(strings.TrimSpace(c.Query("status"))),
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, payments, response.NewMeta(page, perPage, total))
}
