package memory

import (
	"context"
	"sort"

	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

type userStore struct{ *Store }

func (s *userStore) CreateWithProfile(_ context.Context, user *models.User, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	for _, p := range s.profiles {
		if p.Username == profile.Username {
			return apperrors.ErrUsernameTaken
		}
	}
	if profile.SchoolID != nil && s.school(*profile.SchoolID) == nil {
		return apperrors.NewResourceNotFoundError("school not found")
	}

	now := s.stamp()
	user.ID = newID()
	user.CreatedAt = now
	profile.ID = newID()
	profile.UserID = user.ID
	profile.ReputationPoints = 0
	profile.CreatedAt = now
	profile.UpdatedAt = now

	u := *user
	p := *profile
	s.users = append(s.users, &u)
	s.profiles = append(s.profiles, &p)
	return nil
}

func (s *userStore) get(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.get(func(u *models.User) bool { return u.Email == email })
}

func (s *userStore) GetByID(_ context.Context, id string) (*models.User, error) {
	return s.get(func(u *models.User) bool { return u.ID == id })
}

func (s *userStore) UpdateLastLogin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			t := s.stamp()
			u.LastLoginAt = &t
			return nil
		}
	}
	return apperrors.ErrUserNotFound
}

type profileStore struct{ *Store }

func (s *Store) profile(id string) *models.Profile {
	for _, p := range s.profiles {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Store) username(profileID string) *string {
	if p := s.profile(profileID); p != nil {
		return strPtr(p.Username)
	}
	return nil
}

func (s *profileStore) GetByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.profile(id); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.ErrProfileNotFound
}

func (s *profileStore) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

func (s *profileStore) ListByIDs(_ context.Context, ids []string) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Profile
	for _, p := range s.profiles {
		if contains(ids, p.ID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *profileStore) ListBySchool(_ context.Context, schoolID, excludeID string, limit int) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Profile
	for _, p := range s.profiles {
		if limit > 0 && len(out) == limit {
			break
		}
		if p.SchoolID == nil || *p.SchoolID != schoolID || p.ID == excludeID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *profileStore) Update(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile(profile.ID)
	if p == nil {
		return apperrors.ErrProfileNotFound
	}
	if profile.SchoolID != nil && s.school(*profile.SchoolID) == nil {
		return apperrors.NewResourceNotFoundError("school not found")
	}
	p.DisplayName = profile.DisplayName
	p.SchoolID = profile.SchoolID
	p.GradeLevel = profile.GradeLevel
	p.AvatarURL = profile.AvatarURL
	p.Bio = profile.Bio
	p.UpdatedAt = s.stamp()
	profile.UpdatedAt = p.UpdatedAt
	return nil
}

// AddReputation adjusts a profile's reputation. It has no SQL counterpart and
// exists for seeding and tests.
func (s *Store) AddReputation(profileID string, points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.profile(profileID); p != nil {
		p.ReputationPoints += points
	}
}

type schoolStore struct{ *Store }

func (s *Store) school(id string) *models.School {
	for _, sc := range s.schools {
		if sc.ID == id {
			return sc
		}
	}
	return nil
}

func (s *Store) schoolName(id string) *string {
	if sc := s.school(id); sc != nil {
		return strPtr(sc.Name)
	}
	return nil
}

func (s *schoolStore) List(_ context.Context) ([]*models.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.School, 0, len(s.schools))
	for _, sc := range s.schools {
		cp := *sc
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *schoolStore) GetByID(_ context.Context, id string) (*models.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sc := s.school(id); sc != nil {
		cp := *sc
		return &cp, nil
	}
	return nil, apperrors.NewResourceNotFoundError("school not found")
}

func (s *schoolStore) Create(_ context.Context, school *models.School) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	school.ID = newID()
	school.CreatedAt = s.stamp()
	cp := *school
	s.schools = append(s.schools, &cp)
	return nil
}

type interestStore struct{ *Store }

func (s *interestStore) ListByProfile(ctx context.Context, profileID string) ([]string, error) {
	byProfile, err := s.ListByProfiles(ctx, []string{profileID})
	if err != nil {
		return nil, err
	}
	return byProfile[profileID], nil
}

func (s *interestStore) ListByProfiles(_ context.Context, profileIDs []string) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(profileIDs))
	for _, row := range s.interests {
		if contains(profileIDs, row.profileID) {
			out[row.profileID] = append(out[row.profileID], row.tag)
		}
	}
	return out, nil
}

func (s *interestStore) Add(_ context.Context, profileID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile(profileID) == nil {
		return apperrors.ErrProfileNotFound
	}
	for _, row := range s.interests {
		if row.profileID == profileID && row.tag == tag {
			return apperrors.NewConflictError("interest already added")
		}
	}
	s.interests = append(s.interests, interestRow{profileID: profileID, tag: tag})
	return nil
}

func (s *interestStore) Remove(_ context.Context, profileID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.interests {
		if row.profileID == profileID && row.tag == tag {
			s.interests = append(s.interests[:i], s.interests[i+1:]...)
			return nil
		}
	}
	return apperrors.NewResourceNotFoundError("interest not found")
}
