package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/database/testutil"
	"github.com/charlesng35/campushub/internal/models"
)

func newTestBlogService(t *testing.T, db *gorm.DB) (*BlogService, *NotificationService) {
	t.Helper()

	dispatcher, store := newTestDispatcher(t, db)
	svc, err := NewBlogService(db, dispatcher)
	require.NoError(t, err)
	return svc, store
}

func TestBlogCreateStartsPendingAndAlertsAdmins(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, store := newTestBlogService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)

	blog, err := svc.Create(context.Background(), CreateBlogInput{
		AuthorID: alice.ID,
		Title:    "Exam survival guide",
		Content:  "Sleep. Hydrate. Revise.",
		Tags:     []string{"exams", "tips"},
	})
	require.NoError(t, err)
	require.Equal(t, models.BlogPending, blog.Status)

	feed, total, err := store.ListForUser(context.Background(), ListNotificationsInput{UserID: admin.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Blog post awaiting review", feed[0].Title)
	require.Equal(t, models.RelatedTo(models.RelationBlog, blog.ID), feed[0].Relation)
}

func TestBlogVisibilityBeforeApproval(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, _ := newTestBlogService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	blog, err := svc.Create(context.Background(), CreateBlogInput{
		AuthorID: alice.ID,
		Title:    "Draft",
		Content:  "Not public yet.",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), blog.ID, alice.ID, models.RoleStudent)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), blog.ID, admin.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), blog.ID, bob.ID, models.RoleStudent)
	require.ErrorIs(t, err, ErrBlogNotVisible)

	// Only approved posts surface in another student's listing.
	visible, _, err := svc.List(context.Background(), ListBlogsInput{ViewerID: bob.ID, ViewerRole: models.RoleStudent})
	require.NoError(t, err)
	require.Empty(t, visible)

	own, _, err := svc.List(context.Background(), ListBlogsInput{ViewerID: alice.ID, ViewerRole: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, own, 1)
}

func TestBlogReviewNotifiesAuthor(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, store := newTestBlogService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)

	blog, err := svc.Create(context.Background(), CreateBlogInput{
		AuthorID: alice.ID,
		Title:    "Campus food review",
		Content:  "The cafeteria has improved.",
	})
	require.NoError(t, err)

	approved, err := svc.Review(context.Background(), blog.ID, ReviewBlogInput{ReviewerID: admin.ID, Approve: true})
	require.NoError(t, err)
	require.Equal(t, models.BlogApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	require.Equal(t, admin.ID, *approved.ReviewedBy)

	feed, _, err := store.ListForUser(context.Background(), ListNotificationsInput{UserID: alice.ID})
	require.NoError(t, err)
	require.Equal(t, "Blog post approved", feed[0].Title)
}

func TestBlogRejectCarriesReviewNote(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, store := newTestBlogService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)

	blog, err := svc.Create(context.Background(), CreateBlogInput{
		AuthorID: alice.ID,
		Title:    "Rant",
		Content:  "Unfounded claims.",
	})
	require.NoError(t, err)

	rejected, err := svc.Review(context.Background(), blog.ID, ReviewBlogInput{
		ReviewerID: admin.ID,
		Approve:    false,
		Note:       "needs sources",
	})
	require.NoError(t, err)
	require.Equal(t, models.BlogRejected, rejected.Status)
	require.Equal(t, "needs sources", rejected.ReviewNote)

	feed, _, err := store.ListForUser(context.Background(), ListNotificationsInput{UserID: alice.ID})
	require.NoError(t, err)
	require.Equal(t, "Blog post rejected", feed[0].Title)
	require.Contains(t, feed[0].Message, "needs sources")
}

func TestBlogUpdateResetsModeration(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, _ := newTestBlogService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	blog, err := svc.Create(context.Background(), CreateBlogInput{
		AuthorID: alice.ID,
		Title:    "First pass",
		Content:  "v1",
	})
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), blog.ID, ReviewBlogInput{ReviewerID: admin.ID, Approve: true})
	require.NoError(t, err)

	content := "v2"
	updated, err := svc.Update(context.Background(), blog.ID, alice.ID, UpdateBlogInput{Content: &content})
	require.NoError(t, err)
	require.Equal(t, models.BlogPending, updated.Status)
	require.Nil(t, updated.ReviewedBy)

	_, err = svc.Update(context.Background(), blog.ID, bob.ID, UpdateBlogInput{Content: &content})
	require.ErrorIs(t, err, ErrNotBlogAuthor)
}

func TestBlogCommentsOnlyOnApprovedPosts(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, store := newTestBlogService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	blog, err := svc.Create(context.Background(), CreateBlogInput{
		AuthorID: alice.ID,
		Title:    "Open thread",
		Content:  "Discuss.",
	})
	require.NoError(t, err)

	_, err = svc.AddComment(context.Background(), blog.ID, bob.ID, "first!")
	require.ErrorIs(t, err, ErrCommentNotAllowed)

	_, err = svc.Review(context.Background(), blog.ID, ReviewBlogInput{ReviewerID: admin.ID, Approve: true})
	require.NoError(t, err)

	comment, err := svc.AddComment(context.Background(), blog.ID, bob.ID, "first!")
	require.NoError(t, err)
	require.Equal(t, blog.ID, comment.BlogID)

	// The author hears about other people's comments but not their own.
	_, err = svc.AddComment(context.Background(), blog.ID, alice.ID, "thanks!")
	require.NoError(t, err)

	feed, _, err := store.ListForUser(context.Background(), ListNotificationsInput{UserID: alice.ID})
	require.NoError(t, err)
	var commentNotes int
	for _, dto := range feed {
		if dto.Title == "New comment on your post" {
			commentNotes++
		}
	}
	require.Equal(t, 1, commentNotes)

	comments, err := svc.Comments(context.Background(), blog.ID, bob.ID, models.RoleStudent)
	require.NoError(t, err)
	require.Len(t, comments, 2)
}

func TestBlogDeleteRemovesComments(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, _ := newTestBlogService(t, db)

	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	alice := createTestUser(t, db, "alice", models.RoleStudent)
	bob := createTestUser(t, db, "bob", models.RoleStudent)

	blog, err := svc.Create(context.Background(), CreateBlogInput{
		AuthorID: alice.ID,
		Title:    "Short lived",
		Content:  "Gone soon.",
	})
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), blog.ID, ReviewBlogInput{ReviewerID: admin.ID, Approve: true})
	require.NoError(t, err)
	_, err = svc.AddComment(context.Background(), blog.ID, bob.ID, "nice")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), blog.ID, bob.ID, models.RoleStudent), ErrNotBlogAuthor)
	require.NoError(t, svc.Delete(context.Background(), blog.ID, alice.ID, models.RoleStudent))

	var comments int64
	require.NoError(t, db.Model(&models.BlogComment{}).Where("blog_id = ?", blog.ID).Count(&comments).Error)
	require.Zero(t, comments)
}
