package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// InterestCatalogue is the fixed set of tags a profile can pick from
var InterestCatalogue = []string{
	"Gaming", "Anime", "Music", "Sports", "Programming",
	"Art", "Photography", "Reading", "Writing", "Science",
	"Math", "Languages", "Film", "Fashion", "Cooking",
	"Travel", "Fitness", "Dance", "Theater", "Debate",
}

// IsCatalogued reports whether tag is in InterestCatalogue
func IsCatalogued(tag string) bool {
	for _, t := range InterestCatalogue {
		if t == tag {
			return true
		}
	}
	return false
}

// InterestService manages the viewer's interest tags
type InterestService interface {
	List(ctx context.Context, viewer *session.Viewer) ([]string, error)
	Add(ctx context.Context, viewer *session.Viewer, tag string) ([]string, error)
	Remove(ctx context.Context, viewer *session.Viewer, tag string) ([]string, error)
	// Toggle adds the tag when absent and removes it when present.
	Toggle(ctx context.Context, viewer *session.Viewer, tag string) ([]string, error)
}

type interestServiceImpl struct {
	interests repositories.InterestStore
	logger    zerolog.Logger
}

// NewInterestService creates a new InterestService
func NewInterestService(repos *repositories.Repositories, logger zerolog.Logger) InterestService {
	return &interestServiceImpl{interests: repos.Interests, logger: logger}
}

// List returns the viewer's tags
func (s *interestServiceImpl) List(ctx context.Context, viewer *session.Viewer) ([]string, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	tags, err := s.interests.ListByProfile(ctx, viewer.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("error listing interests: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// Add attaches a catalogue tag
func (s *interestServiceImpl) Add(ctx context.Context, viewer *session.Viewer, tag string) ([]string, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if !IsCatalogued(tag) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown interest %q", tag))
	}
	if err := s.interests.Add(ctx, viewer.ProfileID, tag); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("profileID", viewer.ProfileID).Str("tag", tag).Msg("Interest added")
	return s.List(ctx, viewer)
}

// Remove detaches a tag
func (s *interestServiceImpl) Remove(ctx context.Context, viewer *session.Viewer, tag string) ([]string, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if err := s.interests.Remove(ctx, viewer.ProfileID, tag); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("profileID", viewer.ProfileID).Str("tag", tag).Msg("Interest removed")
	return s.List(ctx, viewer)
}

// Toggle flips the tag's presence
func (s *interestServiceImpl) Toggle(ctx context.Context, viewer *session.Viewer, tag string) ([]string, error) {
	current, err := s.List(ctx, viewer)
	if err != nil {
		return nil, err
	}
	for _, t := range current {
		if t == tag {
			return s.Remove(ctx, viewer, tag)
		}
	}
	return s.Add(ctx, viewer, tag)
}
