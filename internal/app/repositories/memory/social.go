package memory

import (
	"context"

	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

type friendStore struct{ *Store }

func (s *friendStore) ListFriendships(_ context.Context, profileID string) ([]*models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Friendship
	for _, f := range s.friendships {
		if f.ProfileID1 == profileID || f.ProfileID2 == profileID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *friendStore) ListRequests(_ context.Context, filter repositories.RequestFilter) ([]*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.FriendRequest
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if filter.SenderID != "" && r.SenderID != filter.SenderID {
			continue
		}
		if filter.ReceiverID != "" && r.ReceiverID != filter.ReceiverID {
			continue
		}
		if filter.EitherID != "" && r.SenderID != filter.EitherID && r.ReceiverID != filter.EitherID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *friendStore) GetRequest(_ context.Context, id string) (*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperrors.ErrRequestNotFound
}

func (s *friendStore) CreateRequest(_ context.Context, req *models.FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.SenderID == req.ReceiverID {
		return apperrors.ErrSelfRequest
	}
	if s.profile(req.SenderID) == nil || s.profile(req.ReceiverID) == nil {
		return apperrors.ErrProfileNotFound
	}
	a, b := models.CanonicalPair(req.SenderID, req.ReceiverID)
	for _, r := range s.requests {
		if r.Status != models.RequestPending {
			continue
		}
		x, y := models.CanonicalPair(r.SenderID, r.ReceiverID)
		if x == a && y == b {
			return apperrors.ErrRequestExists
		}
	}

	now := s.stamp()
	req.ID = newID()
	req.Status = models.RequestPending
	req.CreatedAt = now
	req.UpdatedAt = now
	cp := *req
	s.requests = append(s.requests, &cp)
	return nil
}

func (s *Store) transition(requestID, receiverID string, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	for _, r := range s.requests {
		if r.ID == requestID && r.ReceiverID == receiverID && r.Status == models.RequestPending {
			r.Status = status
			r.UpdatedAt = s.stamp()
			return r, nil
		}
	}
	return nil, apperrors.ErrRequestNotFound
}

func (s *Store) insertFriendship(a, b string) (*models.Friendship, bool) {
	id1, id2 := models.CanonicalPair(a, b)
	for _, f := range s.friendships {
		if f.ProfileID1 == id1 && f.ProfileID2 == id2 {
			return f, false
		}
	}
	f := &models.Friendship{ID: newID(), ProfileID1: id1, ProfileID2: id2, CreatedAt: s.stamp()}
	s.friendships = append(s.friendships, f)
	return f, true
}

func (s *friendStore) AcceptRequest(_ context.Context, requestID, receiverID string) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, err := s.transition(requestID, receiverID, models.RequestAccepted)
	if err != nil {
		return nil, err
	}
	f, _ := s.insertFriendship(req.SenderID, req.ReceiverID)
	cp := *f
	return &cp, nil
}

func (s *friendStore) RejectRequest(_ context.Context, requestID, receiverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.transition(requestID, receiverID, models.RequestRejected)
	return err
}

func (s *friendStore) EnsureFriendship(_ context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == b {
		return false, apperrors.ErrSelfRequest
	}
	_, created := s.insertFriendship(a, b)
	return created, nil
}

func (s *friendStore) DeleteFriendship(_ context.Context, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id1, id2 := models.CanonicalPair(a, b)
	for i, f := range s.friendships {
		if f.ProfileID1 == id1 && f.ProfileID2 == id2 {
			s.friendships = append(s.friendships[:i], s.friendships[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrFriendshipMissing
}

func (s *friendStore) ListOrphanedAccepts(_ context.Context) ([]*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.FriendRequest
	for _, r := range s.requests {
		if r.Status != models.RequestAccepted {
			continue
		}
		id1, id2 := models.CanonicalPair(r.SenderID, r.ReceiverID)
		found := false
		for _, f := range s.friendships {
			if f.ProfileID1 == id1 && f.ProfileID2 == id2 {
				found = true
				break
			}
		}
		if !found {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}
