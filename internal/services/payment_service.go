package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/gateway"
	"github.com/charlesng35/campushub/internal/models"
	apperrors "github.com/charlesng35/campushub/pkg/errors"
	"github.com/charlesng35/campushub/pkg/logger"
	"github.com/charlesng35/campushub/pkg/metrics"
)

var (
	// ErrPaymentNotFound indicates no payment matches the provider order id.
	ErrPaymentNotFound = apperrors.New("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	// ErrInvalidSignature rejects a verification whose signature does not
	// match. The payment record is left untouched.
	ErrInvalidSignature = apperrors.New("PAYMENT_INVALID_SIGNATURE", "Payment signature verification failed", http.StatusBadRequest)
	// ErrPaymentSettled rejects verification of a payment already in a
	// terminal state with a different provider payment id.
	ErrPaymentSettled = apperrors.NewConflict("PAYMENT_SETTLED", "Payment is already settled")
	// ErrNotPaymentOwner rejects verification attempts by anyone but the
	// user the order was created for.
	ErrNotPaymentOwner = apperrors.New("PAYMENT_NOT_OWNER", "This payment belongs to another user", http.StatusForbidden)
)

// CreateOrderInput describes the order to place with the provider. Amount is
// in major currency units; the conversion to the provider's minor unit
// happens at the gateway boundary.
type CreateOrderInput struct {
	UserID   string
	Amount   int64
	Purpose  models.PaymentPurpose
	Relation models.Relation
}

// minorUnitFactor converts major currency units to the provider's minor
// unit (rupees to paise, dollars to cents).
const minorUnitFactor = 100

// VerifyPaymentInput carries the provider callback fields the client relays
// after checkout.
type VerifyPaymentInput struct {
	UserID    string
	OrderID   string
	PaymentID string
	Signature string
}

// ListPaymentsInput pages through payment records.
type ListPaymentsInput struct {
	UserID   string
	Status   models.PaymentStatus
	Page     int
	PageSize int
}

// PaymentService places orders with the external provider and reconciles
// their outcomes. Verification mutates local state only after the provider
// signature checks out.
type PaymentService struct {
	db         *gorm.DB
	provider   gateway.Provider
	dispatcher *Dispatcher
	currency   string
}

// NewPaymentService constructs a PaymentService. Orders are placed in the
// given currency; blank falls back to INR. The dispatcher may be nil;
// settled payments then go unannounced.
func NewPaymentService(db *gorm.DB, provider gateway.Provider, dispatcher *Dispatcher, currency string) (*PaymentService, error) {
	if db == nil {
		return nil, errors.New("payment service: db is required")
	}
	if provider == nil {
		return nil, errors.New("payment service: provider is required")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{db: db, provider: provider, dispatcher: dispatcher, currency: currency}, nil
}

// CreateOrder registers an order with the provider and stores a pending
// payment mirroring it. A provider failure surfaces as an upstream error
// and nothing is persisted.
func (s *PaymentService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Payment, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.UserID) == "" {
		return nil, apperrors.NewBadRequest("user is required")
	}
	if input.Amount <= 0 {
		return nil, apperrors.NewBadRequest("amount must be positive")
	}
	if !input.Purpose.Valid() {
		return nil, apperrors.NewBadRequest("unknown payment purpose")
	}
	if err := input.Relation.Validate(); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	receipt := newReceipt(input.UserID)
	order, err := s.provider.CreateOrder(ctx, input.Amount*minorUnitFactor, s.currency, receipt)
	if err != nil {
		logger.WithModule("payments").Warn("order creation failed at provider", zap.Error(err))
		return nil, apperrors.ErrUpstream.WithInternal(err)
	}

	payment := models.Payment{
		UserID:          input.UserID,
		Amount:          input.Amount,
		Currency:        s.currency,
		Purpose:         input.Purpose,
		Relation:        input.Relation,
		Status:          models.PaymentPending,
		ProviderOrderID: order.ID,
		Receipt:         receipt,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("payment service: create payment: %w", err)
	}
	return &payment, nil
}

// Verify reconciles a provider callback against the stored payment. The
// signature is checked before any local mutation; a forged callback leaves
// every record exactly as it was. Re-verifying an already completed payment
// with the same provider payment id is an idempotent success.
func (s *PaymentService) Verify(ctx context.Context, input VerifyPaymentInput) (*models.Payment, error) {
	ctx = ensureContext(ctx)

	var payment models.Payment
	err := s.db.WithContext(ctx).Where("provider_order_id = ?", input.OrderID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.PaymentVerifications.WithLabelValues("not_found").Inc()
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment service: lookup payment: %w", err)
	}

	if input.UserID != "" && payment.UserID != input.UserID {
		return nil, ErrNotPaymentOwner
	}

	if !s.provider.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
		metrics.PaymentVerifications.WithLabelValues("invalid_signature").Inc()
		return nil, ErrInvalidSignature
	}

	if payment.Status.Terminal() {
		if payment.Status == models.PaymentCompleted && payment.ProviderPaymentID == input.PaymentID {
			return &payment, nil
		}
		return nil, ErrPaymentSettled
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payment).Updates(map[string]any{
			"status":              models.PaymentCompleted,
			"provider_payment_id": input.PaymentID,
			"provider_signature":  input.Signature,
		}).Error; err != nil {
			return fmt.Errorf("payment service: settle payment: %w", err)
		}
		if payment.Purpose == models.PurposeContest {
			return settleParticipant(tx, payment.Relation.ID, payment.UserID, payment.ID)
		}
		return nil
	})
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("error").Inc()
		return nil, err
	}

	payment.Status = models.PaymentCompleted
	payment.ProviderPaymentID = input.PaymentID
	payment.ProviderSignature = input.Signature

	metrics.PaymentVerifications.WithLabelValues("completed").Inc()

	if s.dispatcher != nil {
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:    "Payment received",
			Message:  fmt.Sprintf("Your payment of %d %s was received.", payment.Amount, payment.Currency),
			Urgency:  models.UrgencyInfo,
			Relation: models.RelatedTo(models.RelationPayment, payment.ID),
			Targets:  []string{payment.UserID},
		})
	}
	return &payment, nil
}

// Fail moves a pending payment to failed, releases the contest slot the
// order was holding, and tells the user. Terminal payments are refused.
func (s *PaymentService) Fail(ctx context.Context, id string) (*models.Payment, error) {
	ctx = ensureContext(ctx)

	var payment models.Payment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment service: lookup payment: %w", err)
	}

	if payment.Status.Terminal() {
		return nil, ErrPaymentSettled
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payment).Update("status", models.PaymentFailed).Error; err != nil {
			return fmt.Errorf("payment service: fail payment: %w", err)
		}
		if payment.Purpose == models.PurposeContest {
			return releaseParticipant(tx, payment.Relation.ID, payment.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentFailed

	if s.dispatcher != nil {
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:    "Payment failed",
			Message:  fmt.Sprintf("Your payment of %d %s could not be completed.", payment.Amount, payment.Currency),
			Urgency:  models.UrgencyImportant,
			Relation: models.RelatedTo(models.RelationPayment, payment.ID),
			Targets:  []string{payment.UserID},
		})
	}
	return &payment, nil
}

// Get returns a payment by id. Students can only read their own payments.
func (s *PaymentService) Get(ctx context.Context, id, viewerID string, viewerRole models.Role) (*models.Payment, error) {
	ctx = ensureContext(ctx)

	var payment models.Payment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment service: get payment: %w", err)
	}
	if viewerRole != models.RoleAdmin && payment.UserID != viewerID {
		return nil, ErrNotPaymentOwner
	}
	return &payment, nil
}

// List returns paginated payments, newest first.
func (s *PaymentService) List(ctx context.Context, input ListPaymentsInput) ([]models.Payment, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := clampPage(input.Page, input.PageSize, 100, 20)

	query := s.db.WithContext(ctx).Model(&models.Payment{})
	if input.UserID != "" {
		query = query.Where("user_id = ?", input.UserID)
	}
	if input.Status != "" {
		query = query.Where("status = ?", input.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("payment service: count payments: %w", err)
	}

	var payments []models.Payment
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("payment service: list payments: %w", err)
	}
	return payments, total, nil
}

// ExpirePending fails pending payments older than the given age and releases
// any contest slot the order was holding. It returns the number of payments
// expired.
func (s *PaymentService) ExpirePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	cutoff := time.Now().UTC().Add(-olderThan)

	var stale []models.Payment
	if err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("payment service: find stale payments: %w", err)
	}

	var expired int64
	for _, payment := range stale {
		payment := payment
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&payment).Update("status", models.PaymentFailed).Error; err != nil {
				return err
			}
			if payment.Purpose == models.PurposeContest {
				return releaseParticipant(tx, payment.Relation.ID, payment.UserID)
			}
			return nil
		})
		if err != nil {
			return expired, fmt.Errorf("payment service: expire payment %s: %w", payment.ID, err)
		}
		expired++
	}
	return expired, nil
}

// settleParticipant marks the user's contest registration as paid.
func settleParticipant(tx *gorm.DB, contestID, userID, paymentID string) error {
	var contest models.Contest
	err := tx.Where("id = ?", contestID).First(&contest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The contest was removed after the order was placed. The payment
		// record stands on its own.
		return nil
	}
	if err != nil {
		return fmt.Errorf("payment service: load contest: %w", err)
	}

	idx := contest.ParticipantIndex(userID)
	if idx < 0 {
		return nil
	}
	contest.Participants[idx].PaymentStatus = models.ParticipantPaymentCompleted
	contest.Participants[idx].PaymentID = paymentID

	return tx.Model(&contest).Update("participants", contest.Participants).Error
}

// releaseParticipant drops an unpaid registration so the slot can be reused.
func releaseParticipant(tx *gorm.DB, contestID, userID string) error {
	var contest models.Contest
	err := tx.Where("id = ?", contestID).First(&contest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("payment service: load contest: %w", err)
	}

	idx := contest.ParticipantIndex(userID)
	if idx < 0 || contest.Participants[idx].PaymentStatus != models.ParticipantPaymentPending {
		return nil
	}

	contest.Participants = append(contest.Participants[:idx], contest.Participants[idx+1:]...)
	if err := tx.Model(&contest).Update("participants", contest.Participants).Error; err != nil {
		return err
	}

	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	registered := make([]string, 0, len(user.RegisteredContests))
	for _, id := range user.RegisteredContests {
		if id != contestID {
			registered = append(registered, id)
		}
	}
	return tx.Model(&user).Update("registered_contests", datatypes.NewJSONSlice(registered)).Error
}

// newReceipt builds a receipt unique per order: a user fragment, the
// creation time and a random fragment.
func newReceipt(userID string) string {
	fragment := userID
	if len(fragment) > 8 {
		fragment = fragment[:8]
	}
	nonce := uuid.NewString()[:8]
	return fmt.Sprintf("rcpt_%s_%d_%s", fragment, time.Now().Unix(), nonce)
}
