package models

// PaymentPurpose classifies what a payment settles.
type PaymentPurpose string

const (
	PurposeContest      PaymentPurpose = "contest"
	PurposeSubscription PaymentPurpose = "subscription"
	PurposeOther        PaymentPurpose = "other"
)

// Valid reports whether the purpose is a recognised value.
func (p PaymentPurpose) Valid() bool {
	return p == PurposeContest || p == PurposeSubscription || p == PurposeOther
}

// PaymentStatus tracks a payment's lifecycle. Pending is the only
// non-terminal state; completed, failed, and refunded are absorbing.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Terminal reports whether the status permits no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentRefunded
}

// Payment records an order placed with the external payment provider and its
// reconciliation outcome.
type Payment struct {
	BaseModel

	UserID string `gorm:"type:uuid;index;not null" json:"user_id"`
	// Amount is in major currency units; the provider is billed in minor
	// units at order time.
	Amount   int64          `gorm:"not null" json:"amount"`
	Currency string         `gorm:"type:varchar(8);default:'INR'" json:"currency"`
	Purpose  PaymentPurpose `gorm:"type:varchar(16);not null" json:"purpose"`

	Relation Relation `gorm:"embedded;embeddedPrefix:related_" json:"relation"`

	Status PaymentStatus `gorm:"type:varchar(16);default:'pending';index" json:"status"`

	ProviderOrderID   string `gorm:"index" json:"provider_order_id"`
	ProviderPaymentID string `json:"provider_payment_id"`
	ProviderSignature string `json:"-"`

	Receipt string `gorm:"uniqueIndex" json:"receipt"`
}
