package models

// AuditLog records a domain action for operational review.
type AuditLog struct {
	BaseModel

	UserID    *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string  `gorm:"not null;index" json:"action"`
	Resource  string  `gorm:"index" json:"resource"`
	Result    string  `gorm:"not null" json:"result"`
	IPAddress string  `json:"ip_address"`
	UserAgent string  `json:"user_agent"`
	Metadata  string  `gorm:"type:text" json:"metadata"`
}
