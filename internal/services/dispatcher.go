package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/internal/realtime"
	"github.com/charlesng35/campushub/pkg/metrics"
)

// Event is a domain occurrence the dispatcher turns into a persisted
// notification plus one best-effort live push per recipient. Exactly one of
// Targets or Broadcast must be set.
type Event struct {
	Title    string
	Message  string
	SenderID string
	Urgency  models.Urgency
	Relation models.Relation

	// Targets is an explicit recipient list.
	Targets []string
	// Broadcast expands to every active user holding the role at dispatch
	// time. Broadcasting to students is persisted as recipients mode "all".
	Broadcast models.Role
}

// Dispatcher is the single choke point through which domain events become
// notifications. Persistence failures abort and surface to the caller; push
// failures are swallowed because the stored record is the durable channel.
type Dispatcher struct {
	db    *gorm.DB
	store *NotificationService
	hub   *realtime.Hub
}

// NewDispatcher constructs a Dispatcher. The hub may be nil in contexts
// without live sessions (tests, batch jobs); pushes are then skipped.
func NewDispatcher(db *gorm.DB, store *NotificationService, hub *realtime.Hub) (*Dispatcher, error) {
	if db == nil {
		return nil, errors.New("dispatcher: db is required")
	}
	if store == nil {
		return nil, errors.New("dispatcher: notification store is required")
	}
	return &Dispatcher{db: db, store: store, hub: hub}, nil
}

// Notify resolves recipients, persists the notification, then pushes the
// created record to each recipient's live sessions.
func (d *Dispatcher) Notify(ctx context.Context, event Event) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	input := CreateNotificationInput{
		SenderID: event.SenderID,
		Title:    event.Title,
		Message:  event.Message,
		Urgency:  event.Urgency,
		Relation: event.Relation,
	}

	switch {
	case event.Broadcast == models.RoleStudent:
		input.Recipients = models.RecipientsAll
	case event.Broadcast == models.RoleAdmin:
		ids, err := d.roleIDs(ctx, models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			// Nobody holds the role; a fan-out to zero recipients is a no-op.
			return nil, nil
		}
		input.Recipients = models.RecipientsSpecific
		input.TargetUsers = ids
	case event.Broadcast != "":
		return nil, fmt.Errorf("dispatcher: unknown broadcast role %q", event.Broadcast)
	default:
		input.Recipients = models.RecipientsSpecific
		input.TargetUsers = event.Targets
	}

	notification, err := d.store.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	metrics.NotificationsDispatched.WithLabelValues(string(notification.Urgency)).Inc()

	if d.hub != nil {
		d.hub.SendToUsers(notification.TargetUsers, realtime.Event{
			Event: eventTag(notification.Relation.Kind),
			Data:  notification,
		})
	}

	return notification, nil
}

func (d *Dispatcher) roleIDs(ctx context.Context, role models.Role) ([]string, error) {
	var ids []string
	if err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ?", role, true).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("dispatcher: resolve role %s: %w", role, err)
	}
	return ids, nil
}

func eventTag(kind models.RelationKind) string {
	if kind == "" {
		kind = models.RelationGeneral
	}
	return "notification." + string(kind)
}
