package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/campushub/internal/database/testutil"
	"github.com/charlesng35/campushub/internal/models"
)

func TestDispatcherBroadcastToStudentsPersistsModeAll(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	dispatcher, _ := newTestDispatcher(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	notification, err := dispatcher.Notify(context.Background(), Event{
		Title:     "Campus closed",
		Message:   "Heavy snowfall expected tomorrow.",
		SenderID:  admin.ID,
		Urgency:   models.UrgencyUrgent,
		Broadcast: models.RoleStudent,
	})
	require.NoError(t, err)
	require.NotNil(t, notification)
	require.Equal(t, models.RecipientsAll, notification.Recipients)
	require.ElementsMatch(t, []string{alice.ID, bob.ID}, []string(notification.TargetUsers))
}

func TestDispatcherAdminBroadcastWithNoAdminsIsNoOp(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	dispatcher, store := newTestDispatcher(t, db)

	alice := createTestUser(t, db, "alice", models.RoleStudent)

	notification, err := dispatcher.Notify(context.Background(), Event{
		Title:     "Review queue",
		SenderID:  alice.ID,
		Broadcast: models.RoleAdmin,
	})
	require.NoError(t, err)
	require.Nil(t, notification)

	_, total, err := store.ListAll(context.Background(), ListAllNotificationsInput{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestDispatcherExplicitTargets(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	dispatcher, _ := newTestDispatcher(t, db)

	alice := createTestUser(t, db, "alice", models.RoleStudent)

	notification, err := dispatcher.Notify(context.Background(), Event{
		Title:    "Direct",
		Message:  "Just for you.",
		Relation: models.General(),
		Targets:  []string{alice.ID},
	})
	require.NoError(t, err)
	require.Equal(t, models.RecipientsSpecific, notification.Recipients)
	require.Equal(t, []string{alice.ID}, []string(notification.TargetUsers))
	require.Equal(t, models.UrgencyInfo, notification.Urgency)
}
