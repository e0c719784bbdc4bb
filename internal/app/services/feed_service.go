package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/filestorage"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
	"github.com/yigit/schoolyard/internal/pkg/validation"
)

// SortMode selects a feed projection
type SortMode string

// Feed projections
const (
	SortHot      SortMode = "hot"
	SortNew      SortMode = "new"
	SortTrending SortMode = "trending"
)

// ParseSortMode maps a query value to a SortMode. Empty means hot.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortHot:
		return SortHot, nil
	case SortNew:
		return SortNew, nil
	case SortTrending:
		return SortTrending, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown sort mode %q", s))
}

// FeedQuery scopes and orders a feed read. The zero value is the global feed, newest first.
type FeedQuery struct {
	SchoolID string
	Sort     SortMode
}

// FeedService reads the post feed and applies votes, posts and comments
type FeedService interface {
	ListPosts(ctx context.Context, viewer *session.Viewer, query FeedQuery) ([]dto.PostView, error)
	// Vote toggles the viewer's vote and returns the refetched feed.
	Vote(ctx context.Context, viewer *session.Viewer, postID string, direction models.VoteDirection, query FeedQuery) ([]dto.PostView, error)
	// CreatePost stamps author and home school, inserts and returns the refetched feed.
	CreatePost(ctx context.Context, viewer *session.Viewer, req *dto.CreatePostRequest, query FeedQuery) ([]dto.PostView, error)
	UploadImage(ctx context.Context, viewer *session.Viewer, file *multipart.FileHeader) (string, error)
	ListComments(ctx context.Context, postID string) ([]dto.CommentView, error)
	AddComment(ctx context.Context, viewer *session.Viewer, postID, content string) (*dto.CommentView, error)
}

type feedServiceImpl struct {
	posts         repositories.PostStore
	storage       filestorage.FileStorage
	notifications NotificationService
	now           func() time.Time
	logger        zerolog.Logger
}

// NewFeedService creates a new FeedService. storage may be nil, which disables uploads.
func NewFeedService(repos *repositories.Repositories, storage filestorage.FileStorage, notifications NotificationService, logger zerolog.Logger) FeedService {
	return &feedServiceImpl{
		posts:         repos.Posts,
		storage:       storage,
		notifications: notifications,
		now:           time.Now,
		logger:        logger,
	}
}

// ListPosts returns the newest FeedLimit posts with vote tallies, the
// viewer's own vote and comment counts, projected by query.Sort.
func (s *feedServiceImpl) ListPosts(ctx context.Context, viewer *session.Viewer, query FeedQuery) ([]dto.PostView, error) {
	entries, err := s.posts.List(ctx, repositories.PostFilter{SchoolID: query.SchoolID, Limit: repositories.FeedLimit})
	if err != nil {
		s.logger.Error().Err(err).Str("schoolID", query.SchoolID).Msg("Failed to list posts")
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	votes, err := s.posts.ListVotes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing votes: %w", err)
	}
	comments, err := s.posts.CountComments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error counting comments: %w", err)
	}

	viewerID := ""
	if viewer.HasProfile() {
		viewerID = viewer.ProfileID
	}
	views := TallyVotes(entries, votes, viewerID)
	for i := range views {
		views[i].CommentCount = comments[views[i].ID]
	}

	mode := query.Sort
	if mode == "" {
		mode = SortHot
	}
	if err := Sort(views, mode, s.now()); err != nil {
		return nil, err
	}
	return views, nil
}

// TallyVotes builds post views with Votes = up - down and the UserVote of
// viewerID. An empty viewerID leaves UserVote nil.
func TallyVotes(entries []*models.PostEntry, votes []*models.Vote, viewerID string) []dto.PostView {
	index := make(map[string]int, len(entries))
	views := make([]dto.PostView, len(entries))
	for i, e := range entries {
		views[i] = dto.NewPostView(e)
		index[e.ID] = i
	}
	for _, v := range votes {
		i, ok := index[v.PostID]
		if !ok {
			continue
		}
		switch v.VoteType {
		case models.VoteUp:
			views[i].Votes++
		case models.VoteDown:
			views[i].Votes--
		}
		if viewerID != "" && v.UserID == viewerID {
			dir := v.VoteType
			views[i].UserVote = &dir
		}
	}
	return views
}

// Sort reorders posts in place. hot is net score descending, new is
// created_at descending, trending is score divided by age in milliseconds
// descending with the age clamped to at least 1 ms, so fresh posts swing
// widely. All three are stable.
func Sort(posts []dto.PostView, mode SortMode, now time.Time) error {
	switch mode {
	case SortHot:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].Votes > posts[j].Votes
		})
	case SortNew:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	case SortTrending:
		rate := func(p dto.PostView) float64 {
			age := now.Sub(p.CreatedAt).Milliseconds()
			if age < 1 {
				age = 1
			}
			return float64(p.Votes) / float64(age)
		}
		sort.SliceStable(posts, func(i, j int) bool {
			return rate(posts[i]) > rate(posts[j])
		})
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown sort mode %q", mode))
	}
	return nil
}

// Vote casts direction, or removes the viewer's vote when it already has that direction
func (s *feedServiceImpl) Vote(ctx context.Context, viewer *session.Viewer, postID string, direction models.VoteDirection, query FeedQuery) ([]dto.PostView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if !direction.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid vote direction %q", direction))
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	existing, err := s.posts.GetVote(ctx, postID, viewer.ProfileID)
	if err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, fmt.Errorf("error retrieving vote: %w", err)
	}

	if existing != nil && existing.VoteType == direction {
		if err := s.posts.DeleteVote(ctx, postID, viewer.ProfileID); err != nil {
			return nil, err
		}
		s.logger.Debug().Str("postID", postID).Str("profileID", viewer.ProfileID).Msg("Vote removed")
	} else {
		vote := &models.Vote{PostID: postID, UserID: viewer.ProfileID, VoteType: direction}
		if err := s.posts.UpsertVote(ctx, vote); err != nil {
			return nil, err
		}
		s.logger.Debug().
			Str("postID", postID).
			Str("profileID", viewer.ProfileID).
			Str("direction", string(direction)).
			Msg("Vote cast")
	}
	monitoring.RecordEvent("vote")

	return s.ListPosts(ctx, viewer, query)
}

// CreatePost inserts a post by the viewer in the viewer's school
func (s *feedServiceImpl) CreatePost(ctx context.Context, viewer *session.Viewer, req *dto.CreatePostRequest, query FeedQuery) ([]dto.PostView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if err := validation.NewStringValidation("content", req.Content).
		WithMaxLength(validation.PostMaxLength).
		Validate(); err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:  viewer.ProfileID,
		SchoolID:  viewer.SchoolID,
		Content:   strings.TrimSpace(req.Content),
		ImageURLs: req.ImageURLs,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.logger.Error().Err(err).Str("profileID", viewer.ProfileID).Msg("Failed to create post")
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	s.logger.Info().Str("postID", post.ID).Str("profileID", viewer.ProfileID).Msg("Post created")
	monitoring.RecordEvent("post")
	return s.ListPosts(ctx, viewer, query)
}

// UploadImage stores a post image and returns its URL
func (s *feedServiceImpl) UploadImage(ctx context.Context, viewer *session.Viewer, file *multipart.FileHeader) (string, error) {
	if err := viewer.RequireProfile(); err != nil {
		return "", err
	}
	if s.storage == nil {
		return "", apperrors.NewBadRequestError("image uploads are disabled")
	}
	if _, err := filestorage.ImageExtension(file); err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}

	url, err := s.storage.SaveFile(ctx, file, "posts/"+viewer.ProfileID)
	if err != nil {
		s.logger.Error().Err(err).Str("profileID", viewer.ProfileID).Msg("Failed to store image")
		return "", fmt.Errorf("error storing image: %w", err)
	}
	s.logger.Debug().Str("url", url).Msg("Image uploaded")
	return url, nil
}

// ListComments returns a post's comments oldest first
func (s *feedServiceImpl) ListComments(ctx context.Context, postID string) ([]dto.CommentView, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	entries, err := s.posts.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	views := make([]dto.CommentView, 0, len(entries))
	for _, c := range entries {
		views = append(views, dto.NewCommentView(c))
	}
	return views, nil
}

// AddComment inserts a comment and notifies the post author
func (s *feedServiceImpl) AddComment(ctx context.Context, viewer *session.Viewer, postID, content string) (*dto.CommentView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if err := validation.NewStringValidation("content", content).
		WithMaxLength(validation.CommentMaxLength).
		Validate(); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, AuthorID: viewer.ProfileID, Content: strings.TrimSpace(content)}
	if err := s.posts.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("error creating comment: %w", err)
	}
	monitoring.RecordEvent("comment")

	if post.AuthorID != viewer.ProfileID && s.notifications != nil {
		body := fmt.Sprintf("%s commented on your post", viewer.Username)
		link := "/posts/" + postID
		if _, err := s.notifications.Notify(ctx, post.AuthorID, models.NotificationComment, "New comment", &body, &link); err != nil {
			s.logger.Warn().Err(err).Str("postID", postID).Msg("Failed to notify post author")
		}
	}

	username := viewer.Username
	view := dto.NewCommentView(&models.CommentEntry{Comment: *comment, AuthorUsername: &username})
	return &view, nil
}
