package dto

import (
	"time"

	"github.com/yigit/schoolyard/internal/app/models"
)

// PostView is a post with its per-viewer derived fields
type PostView struct {
	ID             string                `json:"id"`
	AuthorID       string                `json:"authorId"`
	AuthorUsername *string               `json:"authorUsername,omitempty"`
	SchoolID       *string               `json:"schoolId,omitempty"`
	SchoolName     *string               `json:"schoolName,omitempty"`
	Content        string                `json:"content"`
	ImageURLs      []string              `json:"imageUrls"`
	CreatedAt      time.Time             `json:"createdAt"`
	Votes          int                   `json:"votes"`
	UserVote       *models.VoteDirection `json:"userVote"`
	CommentCount   int                   `json:"commentCount"`
}

// NewPostView copies the joined row; vote fields are filled by the caller.
func NewPostView(p *models.PostEntry) PostView {
	images := p.ImageURLs
	if images == nil {
		images = []string{}
	}
	return PostView{
		ID:             p.ID,
		AuthorID:       p.AuthorID,
		AuthorUsername: p.AuthorUsername,
		SchoolID:       p.SchoolID,
		SchoolName:     p.SchoolName,
		Content:        p.Content,
		ImageURLs:      images,
		CreatedAt:      p.CreatedAt,
	}
}

// CreatePostRequest represents post creation data
type CreatePostRequest struct {
	Content   string   `json:"content" binding:"required,max=5000"`
	ImageURLs []string `json:"imageUrls" binding:"omitempty,max=4,dive,required"`
}

// VoteRequest casts or toggles a vote
type VoteRequest struct {
	Direction models.VoteDirection `json:"direction" binding:"required,oneof=up down"`
}

// PostListQuery holds the feed query string
type PostListQuery struct {
	SchoolID string `form:"schoolId" binding:"omitempty,uuid"`
	Sort     string `form:"sort" binding:"omitempty,oneof=hot new trending"`
}

// CommentView is a comment with its author's username
type CommentView struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername *string   `json:"authorUsername,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewCommentView converts a joined comment row
func NewCommentView(c *models.CommentEntry) CommentView {
	return CommentView{
		ID:             c.ID,
		PostID:         c.PostID,
		AuthorID:       c.AuthorID,
		AuthorUsername: c.AuthorUsername,
		Content:        c.Content,
		CreatedAt:      c.CreatedAt,
	}
}

// CreateCommentRequest represents comment creation data
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// ImageUploadResponse returns the stored image URL
type ImageUploadResponse struct {
	URL string `json:"url"`
}
