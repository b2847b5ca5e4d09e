package models

import (
	"time"

	"gorm.io/datatypes"
)

// ContestStatus tracks where a contest sits in its lifecycle. Except for
// cancellation, status is derived from the schedule at read time.
type ContestStatus string

const (
	ContestUpcoming  ContestStatus = "upcoming"
	ContestOngoing   ContestStatus = "ongoing"
	ContestCompleted ContestStatus = "completed"
	ContestCancelled ContestStatus = "cancelled"
)

// PaymentState tracks a participant's entry-fee settlement.
type PaymentState string

const (
	ParticipantPaymentPending   PaymentState = "pending"
	ParticipantPaymentCompleted PaymentState = "completed"
	ParticipantPaymentFailed    PaymentState = "failed"
)

// Participant is one registration entry embedded in a contest.
type Participant struct {
	UserID        string       `json:"user_id"`
	RegisteredAt  time.Time    `json:"registered_at"`
	PaymentStatus PaymentState `json:"payment_status"`
	PaymentID     string       `json:"payment_id,omitempty"`
}

// Contest is a competition with a registration window and an optional entry
// fee. The participant list is embedded in the contest row so registration
// mutates a single record.
type Contest struct {
	BaseModel

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	StartDate            time.Time `gorm:"not null" json:"start_date"`
	EndDate              time.Time `gorm:"not null" json:"end_date"`
	RegistrationDeadline time.Time `gorm:"not null" json:"registration_deadline"`

	// EntryFee is in major currency units; zero means registration is free.
	EntryFee        int64 `gorm:"default:0" json:"entry_fee"`
	MaxParticipants *int  `json:"max_participants"`

	Status       ContestStatus                    `gorm:"type:varchar(16);default:'upcoming';index" json:"status"`
	Participants datatypes.JSONSlice[Participant] `json:"participants"`

	CreatedBy string `gorm:"type:uuid" json:"created_by"`
}

// ParticipantIndex returns the position of userID in the participant list,
// or -1 when the user is not registered.
func (c *Contest) ParticipantIndex(userID string) int {
	for i, p := range c.Participants {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

// IsFull reports whether a bounded contest has no open slots left.
func (c *Contest) IsFull() bool {
	return c.MaxParticipants != nil && len(c.Participants) >= *c.MaxParticipants
}
