package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// FeedController serves the post feed
type FeedController struct {
	feed services.FeedService
}

// NewFeedController creates a new FeedController
func NewFeedController(feed services.FeedService) *FeedController {
	return &FeedController{feed: feed}
}

// feedQuery reads schoolId and sort from the query string. Mutations take the
// same parameters so the refetched feed matches what the client shows.
func feedQuery(ctx *gin.Context) (services.FeedQuery, bool) {
	var q dto.PostListQuery
	if !middleware.BindQuery(ctx, &q) {
		return services.FeedQuery{}, false
	}
	mode, err := services.ParseSortMode(q.Sort)
	if err != nil {
		fail(ctx, err)
		return services.FeedQuery{}, false
	}
	return services.FeedQuery{SchoolID: q.SchoolID, Sort: mode}, true
}

// ListPosts handles retrieving the feed
// @Summary List posts
// @Description Global or per-school feed. Guests see no userVote.
// @Tags posts
// @Produce json
// @Param schoolId query string false "Restrict to one school"
// @Param sort query string false "hot, new or trending" default(hot)
// @Success 200 {object} dto.APIResponse{data=[]dto.PostView}
// @Failure 400 {object} dto.ErrorResponse "Invalid query"
// @Router /posts [get]
func (c *FeedController) ListPosts(ctx *gin.Context) {
	query, valid := feedQuery(ctx)
	if !valid {
		return
	}

	posts, err := c.feed.ListPosts(ctx.Request.Context(), viewerOf(ctx), query)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, posts)
}

// CreatePost handles publishing a post
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} dto.APIResponse{data=[]dto.PostView} "Refetched feed"
// @Router /posts [post]
func (c *FeedController) CreatePost(ctx *gin.Context) {
	query, valid := feedQuery(ctx)
	if !valid {
		return
	}
	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	posts, err := c.feed.CreatePost(ctx.Request.Context(), viewerOf(ctx), &req, query)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, posts)
}

// Vote handles toggling the caller's vote
// @Summary Vote on a post
// @Description Same direction twice removes the vote. The opposite direction switches it.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body dto.VoteRequest true "Direction"
// @Success 200 {object} dto.APIResponse{data=[]dto.PostView} "Refetched feed"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/vote [post]
func (c *FeedController) Vote(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	query, valid := feedQuery(ctx)
	if !valid {
		return
	}
	var req dto.VoteRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	posts, err := c.feed.Vote(ctx.Request.Context(), viewerOf(ctx), id, req.Direction, query)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, posts)
}

// ListComments returns a post's comments
func (c *FeedController) ListComments(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	comments, err := c.feed.ListComments(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, comments)
}

// AddComment comments on a post
func (c *FeedController) AddComment(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.CreateCommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.feed.AddComment(ctx.Request.Context(), viewerOf(ctx), id, req.Content)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, comment)
}

// UploadImage stores an image for a later post
// @Summary Upload post image
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Success 201 {object} dto.APIResponse{data=dto.ImageUploadResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing or unsupported file"
// @Router /posts/images [post]
func (c *FeedController) UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("image")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "image file is required").WithField("image")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	url, err := c.feed.UploadImage(ctx.Request.Context(), viewerOf(ctx), file)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, dto.ImageUploadResponse{URL: url})
}
