package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
)

// FriendService computes the social graph views and drives the request lifecycle
type FriendService interface {
	ListFriends(ctx context.Context, viewer *session.Viewer) ([]dto.Friend, error)
	ListPendingRequests(ctx context.Context, viewer *session.Viewer) ([]dto.FriendRequestView, error)
	ListSentRequests(ctx context.Context, viewer *session.Viewer) ([]dto.FriendRequestView, error)
	// Discover ranks schoolmates by shared interest count, then reputation.
	Discover(ctx context.Context, viewer *session.Viewer) ([]dto.DiscoverableUser, error)
	SendRequest(ctx context.Context, viewer *session.Viewer, receiverID string) (*dto.FriendRequestView, error)
	AcceptRequest(ctx context.Context, viewer *session.Viewer, requestID string) (*models.Friendship, error)
	RejectRequest(ctx context.Context, viewer *session.Viewer, requestID string) error
	RemoveFriend(ctx context.Context, viewer *session.Viewer, friendID string) error
}

type friendServiceImpl struct {
	friends       repositories.FriendStore
	profiles      repositories.ProfileStore
	interests     repositories.InterestStore
	notifications NotificationService
	logger        zerolog.Logger
}

// NewFriendService creates a new FriendService
func NewFriendService(repos *repositories.Repositories, notifications NotificationService, logger zerolog.Logger) FriendService {
	return &friendServiceImpl{
		friends:       repos.Friends,
		profiles:      repos.Profiles,
		interests:     repos.Interests,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *friendServiceImpl) profilesByID(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	profiles, err := s.profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error retrieving profiles: %w", err)
	}
	byID := make(map[string]*models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return byID, nil
}

// ListFriends resolves both edge directions to the other profile, ordered by username
func (s *friendServiceImpl) ListFriends(ctx context.Context, viewer *session.Viewer) ([]dto.Friend, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}

	friendships, err := s.friends.ListFriendships(ctx, viewer.ProfileID)
	if err != nil {
		s.logger.Error().Err(err).Str("profileID", viewer.ProfileID).Msg("Failed to list friendships")
		return nil, fmt.Errorf("error listing friendships: %w", err)
	}

	byOther := make(map[string]*models.Friendship, len(friendships))
	ids := make([]string, 0, len(friendships))
	for _, f := range friendships {
		other := f.Other(viewer.ProfileID)
		byOther[other] = f
		ids = append(ids, other)
	}

	profiles, err := s.profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error retrieving profiles: %w", err)
	}

	friends := make([]dto.Friend, 0, len(profiles))
	for _, p := range profiles {
		f := byOther[p.ID]
		friends = append(friends, dto.Friend{
			ProfileSummary: dto.NewProfileSummary(p),
			FriendshipID:   f.ID,
			Since:          f.CreatedAt,
		})
	}
	return friends, nil
}

func (s *friendServiceImpl) listRequests(ctx context.Context, filter repositories.RequestFilter, incoming bool) ([]dto.FriendRequestView, error) {
	requests, err := s.friends.ListRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing friend requests: %w", err)
	}

	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		if incoming {
			ids = append(ids, r.SenderID)
		} else {
			ids = append(ids, r.ReceiverID)
		}
	}
	byID, err := s.profilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]dto.FriendRequestView, 0, len(requests))
	for _, r := range requests {
		view := dto.FriendRequestView{ID: r.ID, Status: r.Status, CreatedAt: r.CreatedAt}
		if incoming {
			if p, ok := byID[r.SenderID]; ok {
				summary := dto.NewProfileSummary(p)
				view.Sender = &summary
			}
		} else if p, ok := byID[r.ReceiverID]; ok {
			summary := dto.NewProfileSummary(p)
			view.Receiver = &summary
		}
		views = append(views, view)
	}
	return views, nil
}

// ListPendingRequests returns pending requests addressed to the viewer
func (s *friendServiceImpl) ListPendingRequests(ctx context.Context, viewer *session.Viewer) ([]dto.FriendRequestView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	return s.listRequests(ctx, repositories.RequestFilter{
		ReceiverID: viewer.ProfileID,
		Status:     models.RequestPending,
	}, true)
}

// ListSentRequests returns pending requests the viewer sent
func (s *friendServiceImpl) ListSentRequests(ctx context.Context, viewer *session.Viewer) ([]dto.FriendRequestView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	return s.listRequests(ctx, repositories.RequestFilter{
		SenderID: viewer.ProfileID,
		Status:   models.RequestPending,
	}, false)
}

// Discover ranks up to DiscoverLimit schoolmates. The ranking only covers that window.
func (s *friendServiceImpl) Discover(ctx context.Context, viewer *session.Viewer) ([]dto.DiscoverableUser, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if viewer.School() == "" {
		return []dto.DiscoverableUser{}, nil
	}

	candidates, err := s.profiles.ListBySchool(ctx, viewer.School(), viewer.ProfileID, repositories.DiscoverLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("schoolID", viewer.School()).Msg("Failed to list schoolmates")
		return nil, fmt.Errorf("error listing schoolmates: %w", err)
	}

	mine, err := s.interests.ListByProfile(ctx, viewer.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving interests: %w", err)
	}
	myTags := make(map[string]struct{}, len(mine))
	for _, tag := range mine {
		myTags[tag] = struct{}{}
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	theirs, err := s.interests.ListByProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error retrieving interests: %w", err)
	}

	friendships, err := s.friends.ListFriendships(ctx, viewer.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("error listing friendships: %w", err)
	}
	friends := make(map[string]struct{}, len(friendships))
	for _, f := range friendships {
		friends[f.Other(viewer.ProfileID)] = struct{}{}
	}

	pending, err := s.friends.ListRequests(ctx, repositories.RequestFilter{
		EitherID: viewer.ProfileID,
		Status:   models.RequestPending,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing friend requests: %w", err)
	}
	pendingWith := make(map[string]struct{}, len(pending))
	for _, r := range pending {
		if r.SenderID == viewer.ProfileID {
			pendingWith[r.ReceiverID] = struct{}{}
		} else {
			pendingWith[r.SenderID] = struct{}{}
		}
	}

	users := make([]dto.DiscoverableUser, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := friends[c.ID]; ok {
			continue
		}
		shared := []string{}
		for _, tag := range theirs[c.ID] {
			if _, ok := myTags[tag]; ok {
				shared = append(shared, tag)
			}
		}
		_, hasPending := pendingWith[c.ID]
		users = append(users, dto.DiscoverableUser{
			ProfileSummary:    dto.NewProfileSummary(c),
			SharedInterests:   shared,
			HasPendingRequest: hasPending,
		})
	}

	RankDiscoverable(users)
	return users, nil
}

// RankDiscoverable orders users by shared interest count, then reputation,
// both descending. Ties keep their input order.
func RankDiscoverable(users []dto.DiscoverableUser) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if len(a.SharedInterests) != len(b.SharedInterests) {
			return len(a.SharedInterests) > len(b.SharedInterests)
		}
		return a.ReputationPoints > b.ReputationPoints
	})
}

// SendRequest creates a pending request. A pending request in either
// direction is rejected by the store's uniqueness check.
func (s *friendServiceImpl) SendRequest(ctx context.Context, viewer *session.Viewer, receiverID string) (*dto.FriendRequestView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if receiverID == viewer.ProfileID {
		return nil, apperrors.ErrSelfRequest
	}

	receiver, err := s.profiles.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	req := &models.FriendRequest{SenderID: viewer.ProfileID, ReceiverID: receiverID}
	if err := s.friends.CreateRequest(ctx, req); err != nil {
		s.logger.Debug().Err(err).
			Str("senderID", viewer.ProfileID).
			Str("receiverID", receiverID).
			Msg("Friend request rejected by store")
		return nil, err
	}

	s.logger.Debug().Str("requestID", req.ID).Msg("Friend request sent")
	monitoring.RecordEvent("friend_request")

	body := fmt.Sprintf("%s wants to be your friend", viewer.Username)
	link := "/friends"
	if _, err := s.notifications.Notify(ctx, receiverID, models.NotificationFriendRequest, "New friend request", &body, &link); err != nil {
		s.logger.Warn().Err(err).Str("requestID", req.ID).Msg("Failed to notify receiver")
	}

	summary := dto.NewProfileSummary(receiver)
	return &dto.FriendRequestView{
		ID:        req.ID,
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
		Receiver:  &summary,
	}, nil
}

// AcceptRequest marks the request accepted and creates the canonical
// friendship in one store call.
func (s *friendServiceImpl) AcceptRequest(ctx context.Context, viewer *session.Viewer, requestID string) (*models.Friendship, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}

	req, err := s.friends.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != viewer.ProfileID || req.Status != models.RequestPending {
		return nil, apperrors.ErrRequestNotFound
	}

	friendship, err := s.friends.AcceptRequest(ctx, requestID, viewer.ProfileID)
	if err != nil {
		s.logger.Error().Err(err).Str("requestID", requestID).Msg("Failed to accept friend request")
		return nil, err
	}

	s.logger.Debug().
		Str("requestID", requestID).
		Str("friendshipID", friendship.ID).
		Msg("Friend request accepted")
	monitoring.RecordEvent("friend_accept")

	body := fmt.Sprintf("%s accepted your friend request", viewer.Username)
	link := "/friends"
	if _, err := s.notifications.Notify(ctx, req.SenderID, models.NotificationFriendAccepted, "Friend request accepted", &body, &link); err != nil {
		s.logger.Warn().Err(err).Str("requestID", requestID).Msg("Failed to notify sender")
	}
	return friendship, nil
}

// RejectRequest marks a pending request addressed to the viewer rejected
func (s *friendServiceImpl) RejectRequest(ctx context.Context, viewer *session.Viewer, requestID string) error {
	if err := viewer.RequireProfile(); err != nil {
		return err
	}
	if err := s.friends.RejectRequest(ctx, requestID, viewer.ProfileID); err != nil {
		return err
	}
	s.logger.Debug().Str("requestID", requestID).Msg("Friend request rejected")
	return nil
}

// RemoveFriend deletes the canonical friendship between the viewer and friendID
func (s *friendServiceImpl) RemoveFriend(ctx context.Context, viewer *session.Viewer, friendID string) error {
	if err := viewer.RequireProfile(); err != nil {
		return err
	}
	if err := s.friends.DeleteFriendship(ctx, viewer.ProfileID, friendID); err != nil {
		return err
	}
	s.logger.Debug().Str("profileID", viewer.ProfileID).Str("friendID", friendID).Msg("Friend removed")
	monitoring.RecordEvent("friend_remove")
	return nil
}
