package memory

import (
	"context"

	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

type postStore struct{ *Store }

func clonePost(p *models.Post) models.Post {
	cp := *p
	cp.ImageURLs = append([]string(nil), p.ImageURLs...)
	return cp
}

func (s *Store) post(id string) *models.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *postStore) List(_ context.Context, filter repositories.PostFilter) ([]*models.PostEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = repositories.FeedLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PostEntry
	for i := len(s.posts) - 1; i >= 0 && len(out) < limit; i-- {
		p := s.posts[i]
		if filter.SchoolID != "" && (p.SchoolID == nil || *p.SchoolID != filter.SchoolID) {
			continue
		}
		entry := &models.PostEntry{Post: clonePost(p), AuthorUsername: s.username(p.AuthorID)}
		if p.SchoolID != nil {
			entry.SchoolName = s.schoolName(*p.SchoolID)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *postStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.post(id); p != nil {
		cp := clonePost(p)
		return &cp, nil
	}
	return nil, apperrors.NewResourceNotFoundError("post not found")
}

func (s *postStore) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile(post.AuthorID) == nil {
		return apperrors.ErrProfileNotFound
	}
	if post.ImageURLs == nil {
		post.ImageURLs = []string{}
	}
	post.ID = newID()
	post.CreatedAt = s.stamp()
	cp := clonePost(post)
	s.posts = append(s.posts, &cp)
	return nil
}

func (s *postStore) ListVotes(_ context.Context, postIDs []string) ([]*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Vote
	for _, v := range s.votes {
		if contains(postIDs, v.PostID) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *postStore) GetVote(_ context.Context, postID, userID string) (*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.votes {
		if v.PostID == postID && v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError("vote not found")
}

func (s *postStore) UpsertVote(_ context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.post(vote.PostID) == nil {
		return apperrors.NewResourceNotFoundError("post not found")
	}
	for _, v := range s.votes {
		if v.PostID == vote.PostID && v.UserID == vote.UserID {
			v.VoteType = vote.VoteType
			return nil
		}
	}
	cp := *vote
	s.votes = append(s.votes, &cp)
	return nil
}

func (s *postStore) DeleteVote(_ context.Context, postID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.votes {
		if v.PostID == postID && v.UserID == userID {
			s.votes = append(s.votes[:i], s.votes[i+1:]...)
			break
		}
	}
	return nil
}

func (s *postStore) CountComments(_ context.Context, postIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, len(postIDs))
	for _, c := range s.comments {
		if contains(postIDs, c.PostID) {
			counts[c.PostID]++
		}
	}
	return counts, nil
}

func (s *postStore) ListComments(_ context.Context, postID string) ([]*models.CommentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CommentEntry
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, &models.CommentEntry{Comment: *c, AuthorUsername: s.username(c.AuthorID)})
		}
	}
	return out, nil
}

func (s *postStore) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.post(comment.PostID) == nil {
		return apperrors.NewResourceNotFoundError("post not found")
	}
	comment.ID = newID()
	comment.CreatedAt = s.stamp()
	cp := *comment
	s.comments = append(s.comments, &cp)
	return nil
}
