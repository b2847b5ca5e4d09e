package database

import (
	"errors"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Blog{},
		&models.BlogComment{},
		&models.Contest{},
		&models.Notification{},
		&models.Payment{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}

// SeedData provisions the bootstrap admin account when no admin exists yet.
// Credentials come from CAMPUSHUB_ADMIN_EMAIL / CAMPUSHUB_ADMIN_PASSWORD;
// seeding is skipped when they are not set.
func SeedData(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	email := strings.ToLower(strings.TrimSpace(os.Getenv("CAMPUSHUB_ADMIN_EMAIL")))
	password := os.Getenv("CAMPUSHUB_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     "Administrator",
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	return db.Create(&admin).Error
}
