package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
)

// MembershipService lists communities and groups and handles join/leave for both
type MembershipService interface {
	ListCommunities(ctx context.Context, viewer *session.Viewer) ([]dto.CommunityView, error)
	// ListGroups lists the groups of schoolID, or of the viewer's school when empty.
	ListGroups(ctx context.Context, viewer *session.Viewer, schoolID string) ([]dto.GroupView, error)
	CreateGroup(ctx context.Context, viewer *session.Viewer, req *dto.CreateGroupRequest) ([]dto.GroupView, error)
	JoinCommunity(ctx context.Context, viewer *session.Viewer, communityID string) ([]dto.CommunityView, error)
	LeaveCommunity(ctx context.Context, viewer *session.Viewer, communityID string) ([]dto.CommunityView, error)
	JoinGroup(ctx context.Context, viewer *session.Viewer, groupID string) ([]dto.GroupView, error)
	LeaveGroup(ctx context.Context, viewer *session.Viewer, groupID string) ([]dto.GroupView, error)
	// ReconcileCounts rewrites member_count from the edge table and returns what changed.
	ReconcileCounts(ctx context.Context, kind models.MembershipKind) ([]models.CountCorrection, error)
}

type membershipServiceImpl struct {
	memberships repositories.MembershipStore
	logger      zerolog.Logger
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(repos *repositories.Repositories, logger zerolog.Logger) MembershipService {
	return &membershipServiceImpl{memberships: repos.Memberships, logger: logger}
}

func (s *membershipServiceImpl) memberSet(ctx context.Context, viewer *session.Viewer, kind models.MembershipKind) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	if !viewer.HasProfile() {
		return set, nil
	}
	ids, err := s.memberships.MemberOf(ctx, kind, viewer.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("error listing memberships: %w", err)
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// ListCommunities returns global communities by member count with the viewer's membership flag
func (s *membershipServiceImpl) ListCommunities(ctx context.Context, viewer *session.Viewer) ([]dto.CommunityView, error) {
	communities, err := s.memberships.ListCommunities(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list communities")
		return nil, fmt.Errorf("error listing communities: %w", err)
	}
	members, err := s.memberSet(ctx, viewer, models.MembershipCommunity)
	if err != nil {
		return nil, err
	}

	views := make([]dto.CommunityView, 0, len(communities))
	for _, c := range communities {
		_, isMember := members[c.ID]
		views = append(views, dto.NewCommunityView(c, isMember))
	}
	return views, nil
}

// ListGroups returns a school's groups by type. No school yields an empty list.
func (s *membershipServiceImpl) ListGroups(ctx context.Context, viewer *session.Viewer, schoolID string) ([]dto.GroupView, error) {
	if schoolID == "" {
		schoolID = viewer.School()
	}
	if schoolID == "" {
		return []dto.GroupView{}, nil
	}

	groups, err := s.memberships.ListGroups(ctx, schoolID)
	if err != nil {
		s.logger.Error().Err(err).Str("schoolID", schoolID).Msg("Failed to list groups")
		return nil, fmt.Errorf("error listing groups: %w", err)
	}
	members, err := s.memberSet(ctx, viewer, models.MembershipGroup)
	if err != nil {
		return nil, err
	}

	views := make([]dto.GroupView, 0, len(groups))
	for _, g := range groups {
		_, isMember := members[g.ID]
		views = append(views, dto.NewGroupView(g, isMember))
	}
	return views, nil
}

// CreateGroup creates a group in the viewer's school with the viewer as leader
func (s *membershipServiceImpl) CreateGroup(ctx context.Context, viewer *session.Viewer, req *dto.CreateGroupRequest) ([]dto.GroupView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if viewer.School() == "" {
		return nil, apperrors.NewBadRequestError("a school is required to create a group")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}

	leader := viewer.ProfileID
	group := &models.Group{
		SchoolID:    viewer.School(),
		Name:        name,
		Type:        req.Type,
		Description: req.Description,
		SubjectCode: req.SubjectCode,
		GradeLevel:  req.GradeLevel,
		LeaderID:    &leader,
		IsPrivate:   req.IsPrivate,
	}
	if err := s.memberships.CreateGroup(ctx, group); err != nil {
		s.logger.Error().Err(err).Str("schoolID", group.SchoolID).Msg("Failed to create group")
		return nil, err
	}

	s.logger.Info().Str("groupID", group.ID).Str("schoolID", group.SchoolID).Msg("Group created")
	return s.ListGroups(ctx, viewer, group.SchoolID)
}

// join inserts the membership edge and bumps the counter in one store call
func (s *membershipServiceImpl) join(ctx context.Context, viewer *session.Viewer, kind models.MembershipKind, id string) error {
	if err := viewer.RequireProfile(); err != nil {
		return err
	}
	if err := s.memberships.Join(ctx, kind, id, viewer.ProfileID); err != nil {
		s.logger.Debug().Err(err).
			Str("kind", string(kind)).
			Str("entityID", id).
			Str("profileID", viewer.ProfileID).
			Msg("Join rejected")
		return err
	}
	s.logger.Debug().Str("kind", string(kind)).Str("entityID", id).Str("profileID", viewer.ProfileID).Msg("Joined")
	monitoring.RecordEvent(string(kind) + "_join")
	return nil
}

// leave deletes the membership edge and decrements the counter, floor 0, in one store call
func (s *membershipServiceImpl) leave(ctx context.Context, viewer *session.Viewer, kind models.MembershipKind, id string) error {
	if err := viewer.RequireProfile(); err != nil {
		return err
	}
	if err := s.memberships.Leave(ctx, kind, id, viewer.ProfileID); err != nil {
		return err
	}
	s.logger.Debug().Str("kind", string(kind)).Str("entityID", id).Str("profileID", viewer.ProfileID).Msg("Left")
	monitoring.RecordEvent(string(kind) + "_leave")
	return nil
}

// JoinCommunity joins and returns the refetched community list
func (s *membershipServiceImpl) JoinCommunity(ctx context.Context, viewer *session.Viewer, communityID string) ([]dto.CommunityView, error) {
	if err := s.join(ctx, viewer, models.MembershipCommunity, communityID); err != nil {
		return nil, err
	}
	return s.ListCommunities(ctx, viewer)
}

// LeaveCommunity leaves and returns the refetched community list
func (s *membershipServiceImpl) LeaveCommunity(ctx context.Context, viewer *session.Viewer, communityID string) ([]dto.CommunityView, error) {
	if err := s.leave(ctx, viewer, models.MembershipCommunity, communityID); err != nil {
		return nil, err
	}
	return s.ListCommunities(ctx, viewer)
}

// JoinGroup joins and returns the refetched group list of the group's school
func (s *membershipServiceImpl) JoinGroup(ctx context.Context, viewer *session.Viewer, groupID string) ([]dto.GroupView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	group, err := s.memberships.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.join(ctx, viewer, models.MembershipGroup, groupID); err != nil {
		return nil, err
	}
	return s.ListGroups(ctx, viewer, group.SchoolID)
}

// LeaveGroup leaves and returns the refetched group list of the group's school
func (s *membershipServiceImpl) LeaveGroup(ctx context.Context, viewer *session.Viewer, groupID string) ([]dto.GroupView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	group, err := s.memberships.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.leave(ctx, viewer, models.MembershipGroup, groupID); err != nil {
		return nil, err
	}
	return s.ListGroups(ctx, viewer, group.SchoolID)
}

// ReconcileCounts recomputes member_count for kind
func (s *membershipServiceImpl) ReconcileCounts(ctx context.Context, kind models.MembershipKind) ([]models.CountCorrection, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown membership kind %q", kind))
	}
	corrections, err := s.memberships.ReconcileCounts(ctx, kind)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("Failed to reconcile member counts")
		return nil, fmt.Errorf("error reconciling %s member counts: %w", kind, err)
	}
	for _, c := range corrections {
		s.logger.Warn().
			Str("kind", string(kind)).
			Str("entityID", c.ID).
			Int("previous", c.Previous).
			Int("actual", c.Actual).
			Msg("Member count corrected")
	}
	return corrections, nil
}
