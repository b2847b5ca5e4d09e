package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/models"
	apperrors "github.com/charlesng35/campushub/pkg/errors"
	"github.com/charlesng35/campushub/pkg/metrics"
)

var (
	// ErrContestNotFound indicates the requested contest does not exist.
	ErrContestNotFound = apperrors.New("CONTEST_NOT_FOUND", "Contest not found", http.StatusNotFound)
	// ErrRegistrationClosed rejects registration after the deadline or for a
	// cancelled contest.
	ErrRegistrationClosed = apperrors.NewConflict("CONTEST_REGISTRATION_CLOSED", "Registration for this contest is closed")
	// ErrContestFull rejects registration once every slot is taken.
	ErrContestFull = apperrors.NewConflict("CONTEST_FULL", "This contest has no open slots")
	// ErrAlreadyRegistered rejects duplicate registration by the same user.
	ErrAlreadyRegistered = apperrors.NewConflict("CONTEST_ALREADY_REGISTERED", "You are already registered for this contest")
	// ErrContestCancelled rejects mutations of a cancelled contest.
	ErrContestCancelled = apperrors.NewConflict("CONTEST_CANCELLED", "This contest has been cancelled")
)

// CreateContestInput carries the fields of a new contest.
type CreateContestInput struct {
	Title                string
	Description          string
	StartDate            time.Time
	EndDate              time.Time
	RegistrationDeadline time.Time
	EntryFee             int64
	MaxParticipants      *int
	CreatedBy            string
}

// UpdateContestInput names the admin-editable fields. Nil pointers leave the
// stored value untouched.
type UpdateContestInput struct {
	Title                *string
	Description          *string
	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationDeadline *time.Time
	EntryFee             *int64
	MaxParticipants      *int
	ActorID              string
}

// ListContestsInput filters the contest listing by derived status.
type ListContestsInput struct {
	Status   models.ContestStatus
	Page     int
	PageSize int
}

// RegistrationResult reports the outcome of a registration attempt. Payment
// is set only when the contest charges an entry fee; the registration then
// stays pending until the payment is verified.
type RegistrationResult struct {
	Contest *models.Contest
	Payment *models.Payment
}

// ContestService owns the contest lifecycle and the registration path,
// including the paid-entry handshake with the payment service.
type ContestService struct {
	db         *gorm.DB
	payments   *PaymentService
	dispatcher *Dispatcher
	now        func() time.Time
}

// NewContestService constructs a ContestService. The payment service is
// required so fee-charging contests can place orders; the dispatcher may be
// nil.
func NewContestService(db *gorm.DB, payments *PaymentService, dispatcher *Dispatcher) (*ContestService, error) {
	if db == nil {
		return nil, errors.New("contest service: db is required")
	}
	if payments == nil {
		return nil, errors.New("contest service: payment service is required")
	}
	return &ContestService{db: db, payments: payments, dispatcher: dispatcher, now: func() time.Time { return time.Now().UTC() }}, nil
}

// DeriveStatus computes the lifecycle status from the schedule at the given
// instant. Cancellation is sticky: a cancelled contest never leaves that
// state regardless of its dates.
func DeriveStatus(c *models.Contest, at time.Time) models.ContestStatus {
	if c.Status == models.ContestCancelled {
		return models.ContestCancelled
	}
	switch {
	case at.Before(c.StartDate):
		return models.ContestUpcoming
	case at.Before(c.EndDate):
		return models.ContestOngoing
	default:
		return models.ContestCompleted
	}
}

// Create stores a contest and announces it to every active student.
func (s *ContestService) Create(ctx context.Context, input CreateContestInput) (*models.Contest, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, apperrors.NewBadRequest("end date must be after start date")
	}
	if input.RegistrationDeadline.After(input.StartDate) {
		return nil, apperrors.NewBadRequest("registration deadline must not be after the start date")
	}
	if input.EntryFee < 0 {
		return nil, apperrors.NewBadRequest("entry fee cannot be negative")
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return nil, apperrors.NewBadRequest("max participants must be positive")
	}

	contest := models.Contest{
		Title:                title,
		Description:          input.Description,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		RegistrationDeadline: input.RegistrationDeadline,
		EntryFee:             input.EntryFee,
		MaxParticipants:      input.MaxParticipants,
		Status:               models.ContestUpcoming,
		Participants:         datatypes.NewJSONSlice([]models.Participant{}),
		CreatedBy:            input.CreatedBy,
	}
	if err := s.db.WithContext(ctx).Create(&contest).Error; err != nil {
		return nil, fmt.Errorf("contest service: create contest: %w", err)
	}

	if s.dispatcher != nil {
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:     "New contest announced",
			Message:   fmt.Sprintf("%q is open for registration until %s.", contest.Title, contest.RegistrationDeadline.Format(time.RFC1123)),
			SenderID:  contest.CreatedBy,
			Urgency:   models.UrgencyInfo,
			Relation:  models.RelatedTo(models.RelationContest, contest.ID),
			Broadcast: models.RoleStudent,
		})
	}
	return &contest, nil
}

// Get returns a contest with its status derived from the schedule.
func (s *ContestService) Get(ctx context.Context, id string) (*models.Contest, error) {
	ctx = ensureContext(ctx)

	contest, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	contest.Status = DeriveStatus(contest, s.now())
	return contest, nil
}

// List returns paginated contests, soonest-starting first, with derived
// statuses. Status filtering happens after derivation so schedule-driven
// transitions are reflected without a background job.
func (s *ContestService) List(ctx context.Context, input ListContestsInput) ([]models.Contest, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := clampPage(input.Page, input.PageSize, 100, 20)

	var contests []models.Contest
	if err := s.db.WithContext(ctx).
		Order("start_date ASC").
		Find(&contests).Error; err != nil {
		return nil, 0, fmt.Errorf("contest service: list contests: %w", err)
	}

	at := s.now()
	filtered := contests[:0]
	for i := range contests {
		contests[i].Status = DeriveStatus(&contests[i], at)
		if input.Status == "" || contests[i].Status == input.Status {
			filtered = append(filtered, contests[i])
		}
	}

	total := int64(len(filtered))
	start := (page - 1) * perPage
	if start >= len(filtered) {
		return []models.Contest{}, total, nil
	}
	end := start + perPage
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

// Register signs a user up for a contest. Free contests register instantly;
// fee-charging contests place a provider order first and hold the slot with
// a pending payment. The slot check is re-run inside the transaction so two
// racing registrations cannot both take the last slot.
func (s *ContestService) Register(ctx context.Context, contestID, userID string) (*RegistrationResult, error) {
	ctx = ensureContext(ctx)

	contest, err := s.find(ctx, contestID)
	if err != nil {
		metrics.ContestRegistrations.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := s.registrationOpen(contest); err != nil {
		metrics.ContestRegistrations.WithLabelValues("closed").Inc()
		return nil, err
	}
	if contest.IsFull() {
		metrics.ContestRegistrations.WithLabelValues("full").Inc()
		return nil, ErrContestFull
	}
	if contest.ParticipantIndex(userID) >= 0 {
		metrics.ContestRegistrations.WithLabelValues("duplicate").Inc()
		return nil, ErrAlreadyRegistered
	}

	var payment *models.Payment
	if contest.EntryFee > 0 {
		payment, err = s.payments.CreateOrder(ctx, CreateOrderInput{
			UserID:   userID,
			Amount:   contest.EntryFee,
			Purpose:  models.PurposeContest,
			Relation: models.RelatedTo(models.RelationContest, contest.ID),
		})
		if err != nil {
			metrics.ContestRegistrations.WithLabelValues("error").Inc()
			return nil, err
		}
	}

	participant := models.Participant{
		UserID:        userID,
		RegisteredAt:  s.now(),
		PaymentStatus: models.ParticipantPaymentCompleted,
	}
	if payment != nil {
		participant.PaymentStatus = models.ParticipantPaymentPending
		participant.PaymentID = payment.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fresh models.Contest
		if err := withRowLock(tx).Where("id = ?", contestID).First(&fresh).Error; err != nil {
			return fmt.Errorf("contest service: reload contest: %w", err)
		}
		if fresh.IsFull() {
			return ErrContestFull
		}
		if fresh.ParticipantIndex(userID) >= 0 {
			return ErrAlreadyRegistered
		}

		fresh.Participants = append(fresh.Participants, participant)
		if err := tx.Model(&fresh).Update("participants", fresh.Participants).Error; err != nil {
			return fmt.Errorf("contest service: append participant: %w", err)
		}

		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return fmt.Errorf("contest service: load user: %w", err)
		}
		if !containsString(user.RegisteredContests, contestID) {
			registered := append([]string(user.RegisteredContests), contestID)
			if err := tx.Model(&user).Update("registered_contests", datatypes.NewJSONSlice(registered)).Error; err != nil {
				return fmt.Errorf("contest service: record registration: %w", err)
			}
		}

		contest = &fresh
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyRegistered):
			metrics.ContestRegistrations.WithLabelValues("duplicate").Inc()
		case errors.Is(err, ErrContestFull):
			metrics.ContestRegistrations.WithLabelValues("full").Inc()
		default:
			metrics.ContestRegistrations.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.ContestRegistrations.WithLabelValues("accepted").Inc()

	if s.dispatcher != nil && payment == nil {
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:    "Registration confirmed",
			Message:  fmt.Sprintf("You are registered for %q.", contest.Title),
			Urgency:  models.UrgencyInfo,
			Relation: models.RelatedTo(models.RelationContest, contest.ID),
			Targets:  []string{userID},
		})
	}

	contest.Status = DeriveStatus(contest, s.now())
	return &RegistrationResult{Contest: contest, Payment: payment}, nil
}

// Update applies admin edits and tells every registered participant the
// contest changed.
func (s *ContestService) Update(ctx context.Context, id string, input UpdateContestInput) (*models.Contest, error) {
	ctx = ensureContext(ctx)

	contest, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if contest.Status == models.ContestCancelled {
		return nil, ErrContestCancelled
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.RegistrationDeadline != nil {
		updates["registration_deadline"] = *input.RegistrationDeadline
	}
	if input.EntryFee != nil {
		if *input.EntryFee < 0 {
			return nil, apperrors.NewBadRequest("entry fee cannot be negative")
		}
		updates["entry_fee"] = *input.EntryFee
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants <= 0 {
			return nil, apperrors.NewBadRequest("max participants must be positive")
		}
		if *input.MaxParticipants < len(contest.Participants) {
			return nil, apperrors.NewBadRequest("max participants cannot drop below the current registration count")
		}
		updates["max_participants"] = *input.MaxParticipants
	}
	if len(updates) == 0 {
		contest.Status = DeriveStatus(contest, s.now())
		return contest, nil
	}

	if err := s.db.WithContext(ctx).Model(contest).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("contest service: update contest: %w", err)
	}

	contest, err = s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyParticipants(ctx, contest, input.ActorID,
		"Contest updated",
		fmt.Sprintf("%q has been updated. Check the new details.", contest.Title),
		models.UrgencyImportant)

	contest.Status = DeriveStatus(contest, s.now())
	return contest, nil
}

// Cancel puts a contest into its terminal cancelled state and urgently
// notifies every registered participant.
func (s *ContestService) Cancel(ctx context.Context, id, actorID string) (*models.Contest, error) {
	ctx = ensureContext(ctx)

	contest, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if contest.Status == models.ContestCancelled {
		return contest, nil
	}

	if err := s.db.WithContext(ctx).Model(contest).Update("status", models.ContestCancelled).Error; err != nil {
		return nil, fmt.Errorf("contest service: cancel contest: %w", err)
	}
	contest.Status = models.ContestCancelled

	s.notifyParticipants(ctx, contest, actorID,
		"Contest cancelled",
		fmt.Sprintf("%q has been cancelled.", contest.Title),
		models.UrgencyUrgent)
	return contest, nil
}

// Delete removes a contest outright. Cancellation is the usual path; delete
// exists for records created by mistake.
func (s *ContestService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Contest{})
	if result.Error != nil {
		return fmt.Errorf("contest service: delete contest: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrContestNotFound
	}
	return nil
}

func (s *ContestService) registrationOpen(contest *models.Contest) error {
	if contest.Status == models.ContestCancelled {
		return ErrRegistrationClosed
	}
	if s.now().After(contest.RegistrationDeadline) {
		return ErrRegistrationClosed
	}
	return nil
}

func (s *ContestService) notifyParticipants(ctx context.Context, contest *models.Contest, actorID, title, message string, urgency models.Urgency) {
	if s.dispatcher == nil || len(contest.Participants) == 0 {
		return
	}
	targets := make([]string, 0, len(contest.Participants))
	for _, p := range contest.Participants {
		targets = append(targets, p.UserID)
	}
	_, _ = s.dispatcher.Notify(ctx, Event{
		Title:    title,
		Message:  message,
		SenderID: actorID,
		Urgency:  urgency,
		Relation: models.RelatedTo(models.RelationContest, contest.ID),
		Targets:  targets,
	})
}

func (s *ContestService) find(ctx context.Context, id string) (*models.Contest, error) {
	var contest models.Contest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&contest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("contest service: get contest: %w", err)
	}
	return &contest, nil
}
