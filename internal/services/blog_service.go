package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/models"
	apperrors "github.com/charlesng35/campushub/pkg/errors"
)

var (
	// ErrBlogNotFound indicates the requested post does not exist.
	ErrBlogNotFound = apperrors.New("BLOG_NOT_FOUND", "Blog post not found", http.StatusNotFound)
	// ErrNotBlogAuthor rejects edits and deletions by anyone but the author.
	ErrNotBlogAuthor = apperrors.New("BLOG_NOT_AUTHOR", "Only the author can modify this post", http.StatusForbidden)
	// ErrBlogNotVisible rejects reads of unapproved posts by users who are
	// neither the author nor an admin.
	ErrBlogNotVisible = apperrors.New("BLOG_NOT_VISIBLE", "This post is awaiting moderation", http.StatusForbidden)
	// ErrCommentNotAllowed rejects comments on posts that are not approved.
	ErrCommentNotAllowed = apperrors.New("BLOG_COMMENT_NOT_ALLOWED", "Comments are only allowed on approved posts", http.StatusForbidden)
)

// CreateBlogInput carries the author-supplied fields of a new post.
type CreateBlogInput struct {
	AuthorID string
	Title    string
	Content  string
	Tags     []string
}

// UpdateBlogInput names the author-editable fields. Nil pointers leave the
// stored value untouched. Any applied edit sends the post back to moderation.
type UpdateBlogInput struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// ReviewBlogInput records an admin moderation decision.
type ReviewBlogInput struct {
	ReviewerID string
	Approve    bool
	Note       string
}

// ListBlogsInput filters the post listing. Viewer identity decides whether
// pending and rejected posts surface.
type ListBlogsInput struct {
	ViewerID   string
	ViewerRole models.Role
	AuthorID   string
	Status     models.BlogStatus
	Tag        string
	Search     string
	Page       int
	PageSize   int
}

// BlogService owns the post lifecycle: authoring, moderation and comments.
type BlogService struct {
	db         *gorm.DB
	dispatcher *Dispatcher
}

// NewBlogService constructs a BlogService. The dispatcher may be nil; posts
// then move through moderation without notifying anyone.
func NewBlogService(db *gorm.DB, dispatcher *Dispatcher) (*BlogService, error) {
	if db == nil {
		return nil, errors.New("blog service: db is required")
	}
	return &BlogService{db: db, dispatcher: dispatcher}, nil
}

// Create stores a new post in the pending state and alerts admins that a
// review is due.
func (s *BlogService) Create(ctx context.Context, input CreateBlogInput) (*models.Blog, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.AuthorID) == "" {
		return nil, apperrors.NewBadRequest("author is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewBadRequest("content is required")
	}

	blog := models.Blog{
		Title:    title,
		Content:  input.Content,
		Tags:     datatypes.NewJSONSlice(normaliseIDs(input.Tags)),
		AuthorID: input.AuthorID,
		Status:   models.BlogPending,
	}

	if err := s.db.WithContext(ctx).Create(&blog).Error; err != nil {
		return nil, fmt.Errorf("blog service: create post: %w", err)
	}

	if s.dispatcher != nil {
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:     "Blog post awaiting review",
			Message:   fmt.Sprintf("%q was submitted and needs moderation.", blog.Title),
			SenderID:  blog.AuthorID,
			Urgency:   models.UrgencyInfo,
			Relation:  models.RelatedTo(models.RelationBlog, blog.ID),
			Broadcast: models.RoleAdmin,
		})
	}
	return &blog, nil
}

// Get returns a post, enforcing visibility: unapproved posts are only
// readable by their author and admins.
func (s *BlogService) Get(ctx context.Context, id, viewerID string, viewerRole models.Role) (*models.Blog, error) {
	ctx = ensureContext(ctx)

	blog, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.Status != models.BlogApproved && blog.AuthorID != viewerID && viewerRole != models.RoleAdmin {
		return nil, ErrBlogNotVisible
	}
	return blog, nil
}

// List returns paginated posts. Students only see approved posts plus their
// own; admins see everything and may filter by status.
func (s *BlogService) List(ctx context.Context, input ListBlogsInput) ([]models.Blog, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := clampPage(input.Page, input.PageSize, 100, 20)

	query := s.db.WithContext(ctx).Model(&models.Blog{})

	if input.ViewerRole == models.RoleAdmin {
		if input.Status != "" {
			query = query.Where("status = ?", input.Status)
		}
	} else if input.ViewerID != "" {
		query = query.Where("status = ? OR author_id = ?", models.BlogApproved, input.ViewerID)
	} else {
		query = query.Where("status = ?", models.BlogApproved)
	}

	if input.AuthorID != "" {
		query = query.Where("author_id = ?", input.AuthorID)
	}
	if tag := strings.TrimSpace(input.Tag); tag != "" {
		// Tags are stored as a JSON array of strings.
		query = query.Where("tags LIKE ?", "%"+fmt.Sprintf("%q", tag)+"%")
	}
	if search := strings.TrimSpace(input.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("blog service: count posts: %w", err)
	}

	var blogs []models.Blog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&blogs).Error; err != nil {
		return nil, 0, fmt.Errorf("blog service: list posts: %w", err)
	}
	return blogs, total, nil
}

// Update applies author edits and resets the post to pending so it passes
// moderation again before becoming visible.
func (s *BlogService) Update(ctx context.Context, id, actorID string, input UpdateBlogInput) (*models.Blog, error) {
	ctx = ensureContext(ctx)

	blog, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.AuthorID != actorID {
		return nil, ErrNotBlogAuthor
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, apperrors.NewBadRequest("content cannot be empty")
		}
		updates["content"] = *input.Content
	}
	if input.Tags != nil {
		updates["tags"] = datatypes.NewJSONSlice(normaliseIDs(*input.Tags))
	}
	if len(updates) == 0 {
		return blog, nil
	}

	updates["status"] = models.BlogPending
	updates["reviewed_by"] = nil
	updates["review_note"] = ""

	if err := s.db.WithContext(ctx).Model(blog).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("blog service: update post: %w", err)
	}
	return s.find(ctx, id)
}

// Review records an admin decision and notifies the author of the outcome.
func (s *BlogService) Review(ctx context.Context, id string, input ReviewBlogInput) (*models.Blog, error) {
	ctx = ensureContext(ctx)

	blog, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	status := models.BlogRejected
	if input.Approve {
		status = models.BlogApproved
	}

	reviewer := strings.TrimSpace(input.ReviewerID)
	updates := map[string]any{
		"status":      status,
		"review_note": strings.TrimSpace(input.Note),
	}
	if reviewer != "" {
		updates["reviewed_by"] = reviewer
	}

	if err := s.db.WithContext(ctx).Model(blog).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("blog service: review post: %w", err)
	}

	blog, err = s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		title := "Blog post approved"
		message := fmt.Sprintf("%q was approved and is now public.", blog.Title)
		if !input.Approve {
			title = "Blog post rejected"
			message = fmt.Sprintf("%q was rejected.", blog.Title)
			if blog.ReviewNote != "" {
				message = fmt.Sprintf("%q was rejected: %s", blog.Title, blog.ReviewNote)
			}
		}
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:    title,
			Message:  message,
			SenderID: reviewer,
			Urgency:  models.UrgencyInfo,
			Relation: models.RelatedTo(models.RelationBlog, blog.ID),
			Targets:  []string{blog.AuthorID},
		})
	}
	return blog, nil
}

// Delete removes a post and its comments. Authors can delete their own
// posts; admins can delete any.
func (s *BlogService) Delete(ctx context.Context, id, actorID string, actorRole models.Role) error {
	ctx = ensureContext(ctx)

	blog, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if blog.AuthorID != actorID && actorRole != models.RoleAdmin {
		return ErrNotBlogAuthor
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("blog_id = ?", id).Delete(&models.BlogComment{}).Error; err != nil {
			return fmt.Errorf("blog service: delete comments: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Blog{}).Error; err != nil {
			return fmt.Errorf("blog service: delete post: %w", err)
		}
		return nil
	})
}

// AddComment attaches a comment to an approved post and notifies the author,
// unless they commented on their own post.
func (s *BlogService) AddComment(ctx context.Context, blogID, authorID, content string) (*models.BlogComment, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewBadRequest("comment content is required")
	}

	blog, err := s.find(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if blog.Status != models.BlogApproved {
		return nil, ErrCommentNotAllowed
	}

	comment := models.BlogComment{
		BlogID:   blog.ID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("blog service: create comment: %w", err)
	}

	if s.dispatcher != nil && blog.AuthorID != authorID {
		_, _ = s.dispatcher.Notify(ctx, Event{
			Title:    "New comment on your post",
			Message:  fmt.Sprintf("Someone commented on %q.", blog.Title),
			SenderID: authorID,
			Urgency:  models.UrgencyInfo,
			Relation: models.RelatedTo(models.RelationBlog, blog.ID),
			Targets:  []string{blog.AuthorID},
		})
	}
	return &comment, nil
}

// Comments returns a post's comments oldest first, honoring the same
// visibility rule as Get.
func (s *BlogService) Comments(ctx context.Context, blogID, viewerID string, viewerRole models.Role) ([]models.BlogComment, error) {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, blogID, viewerID, viewerRole); err != nil {
		return nil, err
	}

	var comments []models.BlogComment
	if err := s.db.WithContext(ctx).
		Where("blog_id = ?", blogID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("blog service: list comments: %w", err)
	}
	return comments, nil
}

func (s *BlogService) find(ctx context.Context, id string) (*models.Blog, error) {
	var blog models.Blog
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBlogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blog service: get post: %w", err)
	}
	return &blog, nil
}
