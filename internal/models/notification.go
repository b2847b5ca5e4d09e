package models

import "gorm.io/datatypes"

// RecipientsMode selects how a notification's target set was chosen.
type RecipientsMode string

const (
	// RecipientsAll targets every active student. The set is resolved to
	// concrete user ids when the record is created, never re-evaluated.
	RecipientsAll RecipientsMode = "all"
	// RecipientsSpecific targets an explicit list of user ids.
	RecipientsSpecific RecipientsMode = "specific"
)

// Urgency grades how prominently a notification should surface.
type Urgency string

const (
	UrgencyInfo      Urgency = "info"
	UrgencyImportant Urgency = "important"
	UrgencyUrgent    Urgency = "urgent"
)

// Valid reports whether the urgency is a recognised level.
func (u Urgency) Valid() bool {
	return u == UrgencyInfo || u == UrgencyImportant || u == UrgencyUrgent
}

// Notification is a fan-out record: one row addressed to many users, with
// per-user read tracking in ReadBy. A missing ReadBy entry means unread.
type Notification struct {
	BaseModel

	Title    string `gorm:"not null" json:"title"`
	Message  string `gorm:"type:text" json:"message"`
	SenderID string `gorm:"type:uuid;index" json:"sender_id"`

	Recipients  RecipientsMode              `gorm:"type:varchar(16);not null" json:"recipients"`
	TargetUsers datatypes.JSONSlice[string] `json:"target_users"`

	Urgency  Urgency  `gorm:"type:varchar(16);default:'info'" json:"urgency"`
	Relation Relation `gorm:"embedded;embeddedPrefix:related_" json:"relation"`

	ReadBy datatypes.JSONType[map[string]bool] `json:"read_by"`
}

// Targets reports whether userID is in the resolved target set.
func (n *Notification) Targets(userID string) bool {
	for _, id := range n.TargetUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// IsReadBy reports whether userID has read the notification.
func (n *Notification) IsReadBy(userID string) bool {
	return n.ReadBy.Data()[userID]
}
