package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/models"
	apperrors "github.com/charlesng35/campushub/pkg/errors"
)

var (
	// ErrNotificationNotFound indicates the requested notification does not exist.
	ErrNotificationNotFound = apperrors.New("NOTIFICATION_NOT_FOUND", "Notification not found", http.StatusNotFound)
	// ErrNotRecipient is returned when a user acts on a notification that does not target them.
	ErrNotRecipient = apperrors.New("NOTIFICATION_NOT_RECIPIENT", "You are not a recipient of this notification", http.StatusForbidden)
	// ErrInvalidNotificationSpec flags malformed creation input, such as
	// "specific" recipients with an empty target list.
	ErrInvalidNotificationSpec = apperrors.New("NOTIFICATION_INVALID_SPEC", "Notification recipients are invalid", http.StatusBadRequest)
)

// NotificationDTO is the API-facing notification shape. IsRead is derived
// for the requesting viewer from the stored read map, never persisted per
// viewer.
type NotificationDTO struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Message     string                `json:"message"`
	SenderID    string                `json:"sender_id"`
	Recipients  models.RecipientsMode `json:"recipients"`
	TargetUsers []string              `json:"target_users,omitempty"`
	Urgency     models.Urgency        `json:"urgency"`
	Relation    models.Relation       `json:"relation"`
	IsRead      bool                  `json:"is_read"`
	CreatedAt   string                `json:"created_at"`

	Raw *models.Notification `json:"-"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	SenderID    string
	Title       string
	Message     string
	Recipients  models.RecipientsMode
	TargetUsers []string
	Urgency     models.Urgency
	Relation    models.Relation
}

// ListNotificationsInput filters a user's notification feed.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}

// ListAllNotificationsInput pages through every record (admin surface).
type ListAllNotificationsInput struct {
	Page     int
	PageSize int
}

// NotificationService owns fan-out records and per-recipient read state.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db}, nil
}

// Create persists a fan-out record. Mode "all" resolves the target set to
// every active student at call time; the snapshot is never re-evaluated.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if err := input.Relation.Validate(); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	urgency := input.Urgency
	if urgency == "" {
		urgency = models.UrgencyInfo
	}
	if !urgency.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown urgency level %q", input.Urgency))
	}

	var targets []string
	switch input.Recipients {
	case models.RecipientsAll:
		ids, err := s.activeStudentIDs(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, ErrInvalidNotificationSpec.WithInternal(errors.New("no active students to target"))
		}
		targets = ids
	case models.RecipientsSpecific:
		targets = normaliseIDs(input.TargetUsers)
		if len(targets) == 0 {
			return nil, ErrInvalidNotificationSpec
		}
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown recipients mode %q", input.Recipients))
	}

	notification := models.Notification{
		Title:       strings.TrimSpace(input.Title),
		Message:     strings.TrimSpace(input.Message),
		SenderID:    strings.TrimSpace(input.SenderID),
		Recipients:  input.Recipients,
		TargetUsers: datatypes.NewJSONSlice(targets),
		Urgency:     urgency,
		Relation:    input.Relation,
		ReadBy:      datatypes.NewJSONType(map[string]bool{}),
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	return &notification, nil
}

// MarkRead idempotently flips the viewer's read flag. Users outside the
// target set get ErrNotRecipient regardless of the flag's current value.
// The load-modify-write runs under a row lock so two recipients marking the
// same record concurrently cannot overwrite each other's flag.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	var notification models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := withRowLock(tx).First(&notification, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotificationNotFound
			}
			return fmt.Errorf("notification service: load notification: %w", err)
		}

		if !notification.Targets(userID) {
			return ErrNotRecipient
		}

		if notification.IsReadBy(userID) {
			return nil
		}

		readBy := notification.ReadBy.Data()
		if readBy == nil {
			readBy = make(map[string]bool)
		}
		readBy[userID] = true
		notification.ReadBy = datatypes.NewJSONType(readBy)

		if err := tx.Model(&models.Notification{}).
			Where("id = ?", notification.ID).
			Update("read_by", notification.ReadBy).Error; err != nil {
			return fmt.Errorf("notification service: mark read: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := s.toDTO(notification, userID)
	return &dto, nil
}

// ListForUser returns the user's feed, newest first, with the viewer's
// derived read flag and a total count for pagination.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, int64, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, 0, errors.New("notification service: user id is required")
	}

	page, perPage := clampPage(input.Page, input.PageSize, 100, 25)

	// Target membership lives in a JSON array. The LIKE clause is a coarse
	// prefilter over the serialized array; Targets re-checks each candidate.
	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("target_users LIKE ?", `%"`+userID+`"%`).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list notifications: %w", err)
	}

	var matched []NotificationDTO
	for _, row := range rows {
		if !row.Targets(userID) {
			continue
		}
		if input.UnreadOnly && row.IsReadBy(userID) {
			continue
		}
		matched = append(matched, s.toDTO(row, userID))
	}

	total := int64(len(matched))
	start := (page - 1) * perPage
	if start >= len(matched) {
		return []NotificationDTO{}, total, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}

// UnreadCount reports how many notifications target the user and remain unread.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	_, total, err := s.ListForUser(ctx, ListNotificationsInput{UserID: userID, UnreadOnly: true, PageSize: 1})
	return total, err
}

// ListAll pages through every record regardless of target. Role enforcement
// happens in the transport layer.
func (s *NotificationService) ListAll(ctx context.Context, input ListAllNotificationsInput) ([]models.Notification, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := clampPage(input.Page, input.PageSize, 200, 50)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count notifications: %w", err)
	}

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list all: %w", err)
	}

	return rows, total, nil
}

// Delete removes a record outright (admin surface).
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.Notification{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// RemoveUser is the cleanup hook for principal deletion: the user is pulled
// from every target list and read map, and records that only existed for
// them (sole target, or authored with no remaining targets) are purged.
func (s *NotificationService) RemoveUser(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("notification service: user id is required")
	}

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("sender_id = ? OR target_users LIKE ? OR read_by LIKE ?", userID, `%"`+userID+`"%`, `%"`+userID+`"%`).
		Find(&rows).Error; err != nil {
		return fmt.Errorf("notification service: load notifications: %w", err)
	}

	for _, row := range rows {
		touched := false

		targets := make([]string, 0, len(row.TargetUsers))
		for _, id := range row.TargetUsers {
			if id == userID {
				touched = true
				continue
			}
			targets = append(targets, id)
		}

		readBy := row.ReadBy.Data()
		if _, ok := readBy[userID]; ok {
			delete(readBy, userID)
			touched = true
		}

		if !touched && row.SenderID != userID {
			continue
		}

		if len(targets) == 0 {
			if err := s.db.WithContext(ctx).Delete(&models.Notification{}, "id = ?", row.ID).Error; err != nil {
				return fmt.Errorf("notification service: purge notification: %w", err)
			}
			continue
		}

		if touched {
			updates := map[string]any{
				"target_users": datatypes.NewJSONSlice(targets),
				"read_by":      datatypes.NewJSONType(readBy),
			}
			if err := s.db.WithContext(ctx).Model(&models.Notification{}).
				Where("id = ?", row.ID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("notification service: detach user: %w", err)
			}
		}
	}

	return nil
}

func (s *NotificationService) activeStudentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleStudent, true).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("notification service: resolve students: %w", err)
	}
	return ids, nil
}

func (s *NotificationService) toDTO(row models.Notification, viewerID string) NotificationDTO {
	return NotificationDTO{
		ID:          row.ID,
		Title:       row.Title,
		Message:     row.Message,
		SenderID:    row.SenderID,
		Recipients:  row.Recipients,
		TargetUsers: row.TargetUsers,
		Urgency:     row.Urgency,
		Relation:    row.Relation,
		IsRead:      row.IsReadBy(viewerID),
		CreatedAt:   row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Raw:         &row,
	}
}
