package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role labels the two platform roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the recognised values.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User describes a platform account. Students author blogs and register for
// contests; admins moderate content and manage accounts.
type User struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	// StudentID is the campus-issued roll number, optional at signup.
	StudentID string `gorm:"index" json:"student_id"`

	Role     Role   `gorm:"type:varchar(16);default:'student';index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
	Avatar   string `json:"avatar"`
	Bio      string `gorm:"type:text" json:"bio"`

	// RegisteredContests is a denormalized convenience list of contest ids
	// the user has registered for. The contest participant list stays
	// authoritative.
	RegisteredContests datatypes.JSONSlice[string] `json:"registered_contests"`

	LastLoginAt *time.Time `json:"last_login_at"`
}
