package memory

import (
	"context"
	"sort"

	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

type teacherStore struct{ *Store }

func (s *teacherStore) List(_ context.Context, schoolID string) ([]*models.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Teacher
	for _, t := range s.teachers {
		if schoolID == "" || t.SchoolID == schoolID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *teacherStore) GetByID(_ context.Context, id string) (*models.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teachers {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError("teacher not found")
}

func (s *teacherStore) Create(_ context.Context, teacher *models.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.school(teacher.SchoolID) == nil {
		return apperrors.NewResourceNotFoundError("school not found")
	}
	teacher.ID = newID()
	teacher.CreatedAt = s.stamp()
	cp := *teacher
	s.teachers = append(s.teachers, &cp)
	return nil
}

func (s *teacherStore) RatingStats(_ context.Context, targetType string, targetIDs []string) (map[string]models.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(map[string]models.RatingStats, len(targetIDs))
	for _, r := range s.ratings {
		if r.TargetType != targetType || !contains(targetIDs, r.TargetID) {
			continue
		}
		st := stats[r.TargetID]
		st.Sum += r.Score
		st.Count++
		stats[r.TargetID] = st
	}
	return stats, nil
}

func (s *teacherStore) RatingsBy(_ context.Context, targetType, raterID string, targetIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := make(map[string]int)
	if raterID == "" {
		return scores, nil
	}
	for _, r := range s.ratings {
		if r.TargetType == targetType && r.RaterID == raterID && contains(targetIDs, r.TargetID) {
			scores[r.TargetID] = r.Score
		}
	}
	return scores, nil
}

func (s *teacherStore) UpsertRating(_ context.Context, rating *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rating.Score < 1 || rating.Score > 5 {
		return apperrors.NewValidationError("score must be between 1 and 5")
	}
	for _, r := range s.ratings {
		if r.TargetType == rating.TargetType && r.TargetID == rating.TargetID && r.RaterID == rating.RaterID {
			r.Score = rating.Score
			r.Comment = rating.Comment
			rating.ID = r.ID
			rating.CreatedAt = r.CreatedAt
			return nil
		}
	}
	rating.ID = newID()
	rating.CreatedAt = s.stamp()
	cp := *rating
	s.ratings = append(s.ratings, &cp)
	return nil
}
