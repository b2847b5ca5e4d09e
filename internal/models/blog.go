package models

import "gorm.io/datatypes"

// BlogStatus tracks the moderation state of a post.
type BlogStatus string

const (
	BlogPending  BlogStatus = "pending"
	BlogApproved BlogStatus = "approved"
	BlogRejected BlogStatus = "rejected"
)

// Blog is a student-authored post that must pass admin moderation before it
// becomes publicly visible.
type Blog struct {
	BaseModel

	Title   string                      `gorm:"not null" json:"title"`
	Content string                      `gorm:"type:text;not null" json:"content"`
	Tags    datatypes.JSONSlice[string] `json:"tags"`

	AuthorID string     `gorm:"type:uuid;index;not null" json:"author_id"`
	Status   BlogStatus `gorm:"type:varchar(16);default:'pending';index" json:"status"`

	ReviewedBy *string `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewNote string  `json:"review_note,omitempty"`
}

// BlogComment is a reader comment attached to a blog post.
type BlogComment struct {
	BaseModel

	BlogID   string `gorm:"type:uuid;index;not null" json:"blog_id"`
	AuthorID string `gorm:"type:uuid;index;not null" json:"author_id"`
	Content  string `gorm:"type:text;not null" json:"content"`
}
