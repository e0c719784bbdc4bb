package memory

import (
	"context"

	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

type challengeStore struct{ *Store }

func (s *Store) challenge(id string) *models.Challenge {
	for _, c := range s.challenges {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *challengeStore) ListChallenges(_ context.Context) ([]*models.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Challenge, 0, len(s.challenges))
	for i := len(s.challenges) - 1; i >= 0; i-- {
		cp := *s.challenges[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *challengeStore) GetChallenge(_ context.Context, id string) (*models.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.challenge(id); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, apperrors.NewResourceNotFoundError("challenge not found")
}

func (s *challengeStore) CreateChallenge(_ context.Context, challenge *models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if challenge.MaxPoints < 0 {
		return apperrors.NewValidationError("max points must not be negative")
	}
	now := s.stamp()
	challenge.ID = newID()
	challenge.CreatedAt = now
	if challenge.StartDate.IsZero() {
		challenge.StartDate = now
	}
	cp := *challenge
	s.challenges = append(s.challenges, &cp)
	return nil
}

func (s *challengeStore) ListProgress(_ context.Context, schoolID string) ([]*models.SchoolChallengeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SchoolChallengeEntry
	for _, sc := range s.progress {
		if schoolID != "" && sc.SchoolID != schoolID {
			continue
		}
		c := s.challenge(sc.ChallengeID)
		if c == nil {
			continue
		}
		cc := *c
		out = append(out, &models.SchoolChallengeEntry{
			SchoolChallenge: *sc,
			SchoolName:      s.schoolName(sc.SchoolID),
			Challenge:       &cc,
		})
	}
	return out, nil
}

func (s *challengeStore) ListRivalries(_ context.Context, schoolID string) ([]*models.RivalryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RivalryEntry
	for _, r := range s.rivalries {
		if schoolID != "" && r.SchoolAID != schoolID && r.SchoolBID != schoolID {
			continue
		}
		out = append(out, &models.RivalryEntry{
			Rivalry:     *r,
			SchoolAName: s.schoolName(r.SchoolAID),
			SchoolBName: s.schoolName(r.SchoolBID),
		})
	}
	return out, nil
}

func (s *challengeStore) CreateRivalry(_ context.Context, rivalry *models.Rivalry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.school(rivalry.SchoolAID) == nil || s.school(rivalry.SchoolBID) == nil {
		return apperrors.NewResourceNotFoundError("school not found")
	}
	rivalry.ID = newID()
	rivalry.CreatedAt = s.stamp()
	cp := *rivalry
	s.rivalries = append(s.rivalries, &cp)
	return nil
}

func (s *challengeStore) PointTotals(_ context.Context, schoolIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := make(map[string]int, len(schoolIDs))
	for _, sc := range s.progress {
		if contains(schoolIDs, sc.SchoolID) {
			totals[sc.SchoolID] += sc.CurrentPoints
		}
	}
	return totals, nil
}

func (s *challengeStore) AddPoints(_ context.Context, schoolID, challengeID string, points int) (*models.SchoolChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.challenge(challengeID)
	if c == nil {
		return nil, apperrors.NewResourceNotFoundError("challenge not found")
	}
	if s.school(schoolID) == nil {
		return nil, apperrors.NewResourceNotFoundError("school not found")
	}

	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		if v > c.MaxPoints {
			return c.MaxPoints
		}
		return v
	}

	for _, sc := range s.progress {
		if sc.SchoolID == schoolID && sc.ChallengeID == challengeID {
			sc.CurrentPoints = clamp(sc.CurrentPoints + points)
			sc.UpdatedAt = s.stamp()
			cp := *sc
			return &cp, nil
		}
	}
	sc := &models.SchoolChallenge{
		ID:            newID(),
		SchoolID:      schoolID,
		ChallengeID:   challengeID,
		CurrentPoints: clamp(points),
		UpdatedAt:     s.stamp(),
	}
	s.progress = append(s.progress, sc)
	cp := *sc
	return &cp, nil
}
