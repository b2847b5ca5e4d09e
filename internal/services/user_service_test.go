package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/auth"
	"github.com/charlesng35/campushub/internal/database/testutil"
	"github.com/charlesng35/campushub/internal/models"
	apperrors "github.com/charlesng35/campushub/pkg/errors"
)

func newTestUserService(t *testing.T, db *gorm.DB) (*UserService, *NotificationService) {
	t.Helper()

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret-test-secret-test-secret"})
	require.NoError(t, err)

	dispatcher, store := newTestDispatcher(t, db)
	svc, err := NewUserService(db, jwtService, dispatcher, store)
	require.NoError(t, err)
	return svc, store
}

func TestUserRegisterAndAuthenticate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, _ := newTestUserService(t, db)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		Name:      "Alice",
		Email:     "Alice@Campus.Test",
		Password:  "s3cret-passphrase",
		StudentID: "CS21B042",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@campus.test", user.Email)
	require.Equal(t, "cs21b042", user.StudentID)
	require.Equal(t, models.RoleStudent, user.Role)
	require.True(t, user.IsActive)
	require.NotEqual(t, "s3cret-passphrase", user.Password)

	result, err := svc.Authenticate(context.Background(), "alice@campus.test", "s3cret-passphrase")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.NotNil(t, result.User.LastLoginAt)
}

func TestUserRegisterRejectsDuplicateEmail(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, _ := newTestUserService(t, db)

	input := RegisterUserInput{Name: "Alice", Email: "alice@campus.test", Password: "s3cret-passphrase"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserAuthenticateFailures(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, _ := newTestUserService(t, db)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		Name:     "Alice",
		Email:    "alice@campus.test",
		Password: "s3cret-passphrase",
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "alice@campus.test", "wrong password")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@campus.test", "s3cret-passphrase")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	_, err = svc.Authenticate(context.Background(), "alice@campus.test", "s3cret-passphrase")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestUserSetActiveNotifiesAccount(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, store := newTestUserService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)

	updated, err := svc.SetActive(context.Background(), alice.ID, false, admin.ID)
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	feed, total, err := store.ListForUser(context.Background(), ListNotificationsInput{UserID: alice.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Account deactivated", feed[0].Title)
	require.Equal(t, models.RelatedTo(models.RelationAccount, alice.ID), feed[0].Relation)

	// Setting the flag to its current value is a no-op.
	_, err = svc.SetActive(context.Background(), alice.ID, false, admin.ID)
	require.NoError(t, err)
	_, total, err = store.ListForUser(context.Background(), ListNotificationsInput{UserID: alice.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestUserChangeRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, store := newTestUserService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)

	updated, err := svc.ChangeRole(context.Background(), alice.ID, models.RoleAdmin, admin.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, updated.Role)

	_, total, err := store.ListForUser(context.Background(), ListNotificationsInput{UserID: alice.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, err = svc.ChangeRole(context.Background(), alice.ID, models.Role("owner"), admin.ID)
	require.Error(t, err)
}

func TestUserDeleteScrubsNotifications(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, store := newTestUserService(t, db)

	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	shared, err := store.Create(context.Background(), CreateNotificationInput{
		Title:       "shared",
		Recipients:  models.RecipientsSpecific,
		TargetUsers: []string{alice.ID, bob.ID},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), alice.ID))

	err = db.First(&models.User{}, "id = ?", alice.ID).Error
	require.Error(t, err)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, "id = ?", shared.ID).Error)
	require.Equal(t, []string{bob.ID}, []string(reloaded.TargetUsers))

	require.ErrorIs(t, svc.Delete(context.Background(), alice.ID), ErrUserNotFound)
}

func TestUserUpdateProfile(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, _ := newTestUserService(t, db)

	alice := createTestUser(t, db, "alice", models.RoleStudent)

	name := "Alice L"
	bio := "Second-year CS student."
	updated, err := svc.UpdateProfile(context.Background(), alice.ID, UpdateProfileInput{Name: &name, Bio: &bio})
	require.NoError(t, err)
	require.Equal(t, "Alice L", updated.Name)
	require.Equal(t, bio, updated.Bio)

	empty := "  "
	_, err = svc.UpdateProfile(context.Background(), alice.ID, UpdateProfileInput{Name: &empty})
	require.Error(t, err)
}
