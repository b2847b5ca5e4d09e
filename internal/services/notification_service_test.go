package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/campushub/internal/database/testutil"
	"github.com/charlesng35/campushub/internal/models"
	apperrors "github.com/charlesng35/campushub/pkg/errors"
)

func TestNotificationCreateResolvesAllToActiveStudents(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db)
	require.NoError(t, err)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)
	inactive := createTestUser(t, db, "carol", models.RoleStudent)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		SenderID:   admin.ID,
		Title:      "Library hours",
		Message:    "The library closes early on Friday.",
		Recipients: models.RecipientsAll,
		Relation:   models.General(),
	})
	require.NoError(t, err)

	require.ElementsMatch(t, []string{alice.ID, bob.ID}, []string(created.TargetUsers))
	require.False(t, created.Targets(admin.ID))
	require.False(t, created.Targets(inactive.ID))

	// The target set is a snapshot; a student joining later does not widen it.
	dave := createTestUser(t, db, "dave", models.RoleStudent)
	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, "id = ?", created.ID).Error)
	require.False(t, reloaded.Targets(dave.ID))
}

func TestNotificationCreateRejectsEmptyTargets(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateNotificationInput{
		Title:       "Orphan",
		Recipients:  models.RecipientsSpecific,
		TargetUsers: []string{"  ", ""},
	})
	require.ErrorIs(t, err, ErrInvalidNotificationSpec)

	// Mode "all" with nobody to target is equally invalid.
	_, err = svc.Create(context.Background(), CreateNotificationInput{
		Title:      "Orphan",
		Recipients: models.RecipientsAll,
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidNotificationSpec.Code, apperrors.FromError(err).Code)
}

func TestNotificationMarkReadIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice", models.RoleStudent)

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		Title:       "Reminder",
		Recipients:  models.RecipientsSpecific,
		TargetUsers: []string{alice.ID},
	})
	require.NoError(t, err)

	first, err := svc.MarkRead(context.Background(), created.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, first.IsRead)

	second, err := svc.MarkRead(context.Background(), created.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, second.IsRead)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, "id = ?", created.ID).Error)
	require.Equal(t, map[string]bool{alice.ID: true}, reloaded.ReadBy.Data())
}

func TestNotificationMarkReadPreservesOtherRecipients(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		Title:       "Exam hall change",
		Recipients:  models.RecipientsSpecific,
		TargetUsers: []string{alice.ID, bob.ID},
	})
	require.NoError(t, err)

	// Each mark rewrites the whole read map, so it must carry every flag
	// already present, not just the caller's own.
	_, err = svc.MarkRead(context.Background(), created.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.MarkRead(context.Background(), created.ID, bob.ID)
	require.NoError(t, err)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, "id = ?", created.ID).Error)
	require.Equal(t, map[string]bool{alice.ID: true, bob.ID: true}, reloaded.ReadBy.Data())
	require.True(t, reloaded.IsReadBy(alice.ID))
	require.True(t, reloaded.IsReadBy(bob.ID))
}

func TestNotificationMarkReadRejectsNonRecipient(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice", models.RoleStudent)
	mallory := createTestUser(t, db, "mallory", models.RoleStudent)

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		Title:       "Private",
		Recipients:  models.RecipientsSpecific,
		TargetUsers: []string{alice.ID},
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), created.ID, mallory.ID)
	require.ErrorIs(t, err, ErrNotRecipient)

	_, err = svc.MarkRead(context.Background(), "missing-id", alice.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestNotificationListForUserFiltersAndCounts(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Create(context.Background(), CreateNotificationInput{
			Title:       title,
			Recipients:  models.RecipientsSpecific,
			TargetUsers: []string{alice.ID},
		})
		require.NoError(t, err)
	}
	onlyBob, err := svc.Create(context.Background(), CreateNotificationInput{
		Title:       "for bob",
		Recipients:  models.RecipientsSpecific,
		TargetUsers: []string{bob.ID},
	})
	require.NoError(t, err)

	feed, total, err := svc.ListForUser(context.Background(), ListNotificationsInput{UserID: alice.ID})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, feed, 3)
	for _, dto := range feed {
		require.NotEqual(t, onlyBob.ID, dto.ID)
		require.False(t, dto.IsRead)
	}

	_, err = svc.MarkRead(context.Background(), feed[0].ID, alice.ID)
	require.NoError(t, err)

	unread, total, err := svc.ListForUser(context.Background(), ListNotificationsInput{UserID: alice.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, unread, 2)

	count, err := svc.UnreadCount(context.Background(), alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestNotificationRemoveUserScrubsFanOutState(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	shared, err := svc.Create(context.Background(), CreateNotificationInput{
		Title:       "shared",
		Recipients:  models.RecipientsSpecific,
		TargetUsers: []string{alice.ID, bob.ID},
	})
	require.NoError(t, err)
	_, err = svc.MarkRead(context.Background(), shared.ID, alice.ID)
	require.NoError(t, err)

	solo, err := svc.Create(context.Background(), CreateNotificationInput{
		Title:       "solo",
		Recipients:  models.RecipientsSpecific,
		TargetUsers: []string{alice.ID},
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveUser(context.Background(), alice.ID))

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, "id = ?", shared.ID).Error)
	require.Equal(t, []string{bob.ID}, []string(reloaded.TargetUsers))
	require.NotContains(t, reloaded.ReadBy.Data(), alice.ID)

	err = db.First(&models.Notification{}, "id = ?", solo.ID).Error
	require.Error(t, err)
}
