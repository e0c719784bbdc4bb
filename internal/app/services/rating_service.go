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
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
	"github.com/yigit/schoolyard/internal/pkg/validation"
)

// RatingService lists teachers with their ratings and records the viewer's score
type RatingService interface {
	ListTeachers(ctx context.Context, viewer *session.Viewer, schoolID string) ([]dto.TeacherView, error)
	// RateTeacher writes the viewer's score, replacing any earlier one.
	RateTeacher(ctx context.Context, viewer *session.Viewer, teacherID string, req *dto.RateTeacherRequest) ([]dto.TeacherView, error)
}

type ratingServiceImpl struct {
	teachers repositories.TeacherStore
	logger   zerolog.Logger
}

// NewRatingService creates a new RatingService
func NewRatingService(repos *repositories.Repositories, logger zerolog.Logger) RatingService {
	return &ratingServiceImpl{teachers: repos.Teachers, logger: logger}
}

// ListTeachers returns teachers, optionally of one school, with average score,
// rating count and the viewer's own score
func (s *ratingServiceImpl) ListTeachers(ctx context.Context, viewer *session.Viewer, schoolID string) ([]dto.TeacherView, error) {
	teachers, err := s.teachers.List(ctx, schoolID)
	if err != nil {
		s.logger.Error().Err(err).Str("schoolID", schoolID).Msg("Failed to list teachers")
		return nil, fmt.Errorf("error listing teachers: %w", err)
	}

	ids := make([]string, 0, len(teachers))
	for _, t := range teachers {
		ids = append(ids, t.ID)
	}
	stats, err := s.teachers.RatingStats(ctx, models.RatingTargetTeacher, ids)
	if err != nil {
		return nil, fmt.Errorf("error aggregating ratings: %w", err)
	}
	mine := map[string]int{}
	if viewer.HasProfile() {
		mine, err = s.teachers.RatingsBy(ctx, models.RatingTargetTeacher, viewer.ProfileID, ids)
		if err != nil {
			return nil, fmt.Errorf("error retrieving own ratings: %w", err)
		}
	}

	views := make([]dto.TeacherView, 0, len(teachers))
	for _, t := range teachers {
		view := dto.TeacherView{
			ID:       t.ID,
			SchoolID: t.SchoolID,
			Name:     t.Name,
			Subject:  t.Subject,
		}
		if st, ok := stats[t.ID]; ok && st.Count > 0 {
			view.TotalRatings = st.Count
			view.AverageRating = float64(st.Sum) / float64(st.Count)
		}
		if score, ok := mine[t.ID]; ok {
			score := score
			view.UserRating = &score
		}
		views = append(views, view)
	}
	return views, nil
}

// RateTeacher upserts on (target_type, target_id, rater_id) and returns the refetched list of the teacher's school
func (s *ratingServiceImpl) RateTeacher(ctx context.Context, viewer *session.Viewer, teacherID string, req *dto.RateTeacherRequest) ([]dto.TeacherView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if err := validation.NewNumericValidation("score", req.Score).
		Between(validation.RatingMin, validation.RatingMax).
		Validate(); err != nil {
		return nil, err
	}

	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	var comment *string
	if req.Comment != nil && strings.TrimSpace(*req.Comment) != "" {
		c := strings.TrimSpace(*req.Comment)
		comment = &c
	}
	rating := &models.Rating{
		TargetType: models.RatingTargetTeacher,
		TargetID:   teacher.ID,
		RaterID:    viewer.ProfileID,
		Score:      req.Score,
		Comment:    comment,
	}
	if err := s.teachers.UpsertRating(ctx, rating); err != nil {
		s.logger.Error().Err(err).Str("teacherID", teacherID).Msg("Failed to rate teacher")
		return nil, err
	}

	s.logger.Debug().
		Str("teacherID", teacherID).
		Str("profileID", viewer.ProfileID).
		Int("score", req.Score).
		Msg("Teacher rated")
	monitoring.RecordEvent("rating")
	return s.ListTeachers(ctx, viewer, teacher.SchoolID)
}
