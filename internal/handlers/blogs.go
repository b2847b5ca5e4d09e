package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/campushub/internal/middleware"
	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/internal/services"
	"github.com/charlesng35/campushub/pkg/errors"
	"github.com/charlesng35/campushub/pkg/response"
)

// BlogHandler exposes authoring, moderation and comment endpoints.
type BlogHandler struct {
	blogs *services.BlogService
}

// NewBlogHandler constructs a blog handler.
func NewBlogHandler(blogs *services.BlogService) *BlogHandler {
	return &BlogHandler{blogs: blogs}
}

type createBlogRequest struct {
	Title   string   `json:"title" validate:"required,min=1,max=200"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=40"`
}

type updateBlogRequest struct {
	Title   *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Content *string   `json:"content" validate:"omitempty,min=1"`
	Tags    *[]string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=40"`
}

type reviewBlogRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Note    string `json:"note" validate:"max=1000"`
}

type addCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

func callerIdentity(c *gin.Context) (string, models.Role) {
	userID := c.GetString(middleware.CtxUserIDKey)
	v, _ := c.Get(middleware.CtxRoleKey)
	role, _ := v.(models.Role)
	return userID, role
}

// Create submits a new post for moderation.
func (h *BlogHandler) Create(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createBlogRequest
	if !bindAndValidate(c, &req) {
		return
	}

	blog, err := h.blogs.Create(requestContext(c), services.CreateBlogInput{
		AuthorID: userID,
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, blog)
}

// List returns posts visible to the caller.
func (h *BlogHandler) List(c *gin.Context) {
	userID, role := callerIdentity(c)

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	blogs, total, err := h.blogs.List(requestContext(c), services.ListBlogsInput{
		ViewerID:   userID,
		ViewerRole: role,
		AuthorID:   strings.TrimSpace(c.Query("author")),
		Status:     models.BlogStatus(strings.TrimSpace(c.Query("status"))),
		Tag:        c.Query("tag"),
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       page,
		PageSize:   perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, blogs, response.NewMeta(page, perPage, total))
}

// Get returns one post, honoring moderation visibility.
func (h *BlogHandler) Get(c *gin.Context) {
	userID, role := callerIdentity(c)

	blog, err := h.blogs.Get(requestContext(c), c.Param("id"), userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, blog)
}

// Update applies author edits; the post returns to moderation.
func (h *BlogHandler) Update(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	var req updateBlogRequest
	if !bindAndValidate(c, &req) {
		return
	}

	blog, err := h.blogs.Update(requestContext(c), c.Param("id"), userID, services.UpdateBlogInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, blog)
}

// Review records a moderation decision (admin).
func (h *BlogHandler) Review(c *gin.Context) {
	reviewerID := c.GetString(middleware.CtxUserIDKey)

	var req reviewBlogRequest
	if !bindAndValidate(c, &req) {
		return
	}

	blog, err := h.blogs.Review(requestContext(c), c.Param("id"), services.ReviewBlogInput{
		ReviewerID: reviewerID,
		Approve:    *req.Approve,
		Note:       req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, blog)
}

// Delete removes a post and its comments.
func (h *BlogHandler) Delete(c *gin.Context) {
	userID, role := callerIdentity(c)

	if err := h.blogs.Delete(requestContext(c), c.Param("id"), userID, role); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AddComment attaches a comment to an approved post.
func (h *BlogHandler) AddComment(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	var req addCommentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	comment, err := h.blogs.AddComment(requestContext(c), c.Param("id"), userID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// Comments lists a post's comments.
func (h *BlogHandler) Comments(c *gin.Context) {
	userID, role := callerIdentity(c)

	comments, err := h.blogs.Comments(requestContext(c), c.Param("id"), userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}
