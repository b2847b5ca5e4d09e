package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/auth"
	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/pkg/crypto"
	apperrors "github.com/charlesng35/campushub/pkg/errors"
	"github.com/charlesng35/campushub/pkg/metrics"
)

var (
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = apperrors.NewConflict("EMAIL_TAKEN", "An account with this email already exists")
	// ErrAccountDisabled rejects authentication for deactivated accounts.
	ErrAccountDisabled = apperrors.New("ACCOUNT_DISABLED", "This account has been deactivated", http.StatusForbidden)
)

// RegisterUserInput carries the fields needed to create an account.
type RegisterUserInput struct {
	Name      string
	Email     string
	Password  string
	StudentID string
}

// UpdateProfileInput names the self-service mutable profile fields. Nil
// pointers leave the stored value untouched.
type UpdateProfileInput struct {
	Name   *string
	Avatar *string
	Bio    *string
}

// ListUsersInput filters the admin account listing.
type ListUsersInput struct {
	Role     models.Role
	Search   string
	Page     int
	PageSize int
}

// AuthResult bundles the authenticated user with a fresh access token.
type AuthResult struct {
	User  *models.User
	Token string
}

// UserService manages account lifecycle: registration, authentication,
// profile edits and the admin-only role and activation switches.
type UserService struct {
	db            *gorm.DB
	jwt           *auth.JWTService
	dispatcher    *Dispatcher
	notifications *NotificationService
}

// NewUserService constructs a UserService. The dispatcher may be nil; role
// and activation changes are then stored without notifying the user.
func NewUserService(db *gorm.DB, jwtService *auth.JWTService, dispatcher *Dispatcher, notifications *NotificationService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("user service: jwt service is required")
	}
	if notifications == nil {
		return nil, errors.New("user service: notification service is required")
	}
	return &UserService{db: db, jwt: jwtService, dispatcher: dispatcher, notifications: notifications}, nil
}

// Register creates a student account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	user := models.User{
		Name:      name,
		Email:     email,
		Password:  hashed,
		Role:      models.RoleStudent,
		IsActive:  true,
		StudentID: strings.ToLower(strings.TrimSpace(input.StudentID)),
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}
	return &user, nil
}

// Authenticate verifies credentials and issues an access token. Lookup
// failures and password mismatches share one error so callers cannot probe
// for registered emails.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: lookup user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("disabled").Inc()
		return nil, ErrAccountDisabled
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}
	user.LastLoginAt = &now

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &AuthResult{User: &user, Token: token}, nil
}

// Get returns a single account by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// List returns paginated accounts, optionally filtered by role or a
// name/email search term.
func (s *UserService) List(ctx context.Context, input ListUsersInput) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := clampPage(input.Page, input.PageSize, 100, 20)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if input.Role != "" {
		if !input.Role.Valid() {
			return nil, 0, apperrors.NewBadRequest("unknown role filter")
		}
		query = query.Where("role = ?", input.Role)
	}
	if term := strings.TrimSpace(input.Search); term != "" {
		pattern := "%" + term + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count users: %w", err)
	}

	var users []models.User
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}
	return users, total, nil
}

// UpdateProfile applies the provided self-service fields to the account.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}
	return s.Get(ctx, id)
}

// SetActive toggles an account's active flag and tells the user about the
// change. Deactivated accounts keep their data but cannot authenticate.
func (s *UserService) SetActive(ctx context.Context, id string, active bool, actorID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsActive == active {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("user service: set active: %w", err)
	}
	user.IsActive = active

	if s.dispatcher != nil {
		title := "Account reactivated"
		message := "Your account has been reactivated. Welcome back."
		if !active {
			title = "Account deactivated"
			message = "Your account has been deactivated by an administrator."
		}
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:    title,
			Message:  message,
			SenderID: actorID,
			Urgency:  models.UrgencyImportant,
			Relation: models.RelatedTo(models.RelationAccount, user.ID),
			Targets:  []string{user.ID},
		})
	}
	return user, nil
}

// ChangeRole switches an account between student and admin and notifies it.
func (s *UserService) ChangeRole(ctx context.Context, id string, role models.Role, actorID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	if !role.Valid() {
		return nil, apperrors.NewBadRequest("unknown role")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("user service: change role: %w", err)
	}
	user.Role = role

	if s.dispatcher != nil {
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:    "Role updated",
			Message:  fmt.Sprintf("Your account role is now %q.", role),
			SenderID: actorID,
			Urgency:  models.UrgencyImportant,
			Relation: models.RelatedTo(models.RelationAccount, user.ID),
			Targets:  []string{user.ID},
		})
	}
	return user, nil
}

// Delete removes the account and scrubs it from notification fan-out state.
// Blog posts, comments and contest participation entries stay behind as
// historical records.
func (s *UserService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("user service: delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return s.notifications.RemoveUser(ctx, id)
}
