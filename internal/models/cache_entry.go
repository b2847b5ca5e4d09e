package models

import (
	"time"
)

// CacheEntry is a cached value stored in the database. It backs the shared
// rate-limit counters when no dedicated cache is deployed.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
