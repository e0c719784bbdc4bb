package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

type membershipStore struct{ *Store }

func (s *Store) community(id string) *models.Community {
	for _, c := range s.communities {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Store) group(id string) *models.Group {
	for _, g := range s.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// counter returns a pointer to the member_count of the entity, or nil when it does not exist.
func (s *Store) counter(kind models.MembershipKind, id string) (*int, error) {
	switch kind {
	case models.MembershipCommunity:
		if c := s.community(id); c != nil {
			return &c.MemberCount, nil
		}
	case models.MembershipGroup:
		if g := s.group(id); g != nil {
			return &g.MemberCount, nil
		}
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown membership kind %q", kind))
	}
	return nil, nil
}

func (s *membershipStore) ListCommunities(_ context.Context) ([]*models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Community
	for _, c := range s.communities {
		if c.IsGlobal {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MemberCount > out[j].MemberCount })
	return out, nil
}

func (s *membershipStore) GetCommunity(_ context.Context, id string) (*models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.community(id); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, apperrors.NewResourceNotFoundError("community not found")
}

func (s *membershipStore) CreateCommunity(_ context.Context, community *models.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.communities {
		if c.Slug == community.Slug {
			return apperrors.NewConflictError("community slug already exists")
		}
	}
	community.ID = newID()
	community.MemberCount = 0
	community.PostCount = 0
	community.CreatedAt = s.stamp()
	cp := *community
	s.communities = append(s.communities, &cp)
	return nil
}

func (s *membershipStore) ListGroups(_ context.Context, schoolID string) ([]*models.GroupEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.GroupEntry
	for _, g := range s.groups {
		if g.SchoolID == schoolID {
			out = append(out, &models.GroupEntry{Group: *g, SchoolName: s.schoolName(g.SchoolID)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *membershipStore) GetGroup(_ context.Context, id string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g := s.group(id); g != nil {
		cp := *g
		return &cp, nil
	}
	return nil, apperrors.NewResourceNotFoundError("group not found")
}

func (s *membershipStore) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.school(group.SchoolID) == nil {
		return apperrors.NewResourceNotFoundError("school not found")
	}
	group.ID = newID()
	group.MemberCount = 0
	group.CreatedAt = s.stamp()
	cp := *group
	s.groups = append(s.groups, &cp)
	return nil
}

func (s *membershipStore) MemberOf(_ context.Context, kind models.MembershipKind, profileID string) ([]string, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown membership kind %q", kind))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, m := range s.members[kind] {
		if m.profileID == profileID {
			ids = append(ids, m.entityID)
		}
	}
	return ids, nil
}

func (s *membershipStore) Join(_ context.Context, kind models.MembershipKind, entityID, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, err := s.counter(kind, entityID)
	if err != nil {
		return err
	}
	if count == nil {
		return apperrors.NewResourceNotFoundError(string(kind) + " not found")
	}
	if s.profile(profileID) == nil {
		return apperrors.ErrProfileNotFound
	}
	for _, m := range s.members[kind] {
		if m.entityID == entityID && m.profileID == profileID {
			return apperrors.ErrAlreadyMember
		}
	}
	s.members[kind] = append(s.members[kind], memberRow{entityID: entityID, profileID: profileID})
	*count++
	return nil
}

func (s *membershipStore) Leave(_ context.Context, kind models.MembershipKind, entityID, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, err := s.counter(kind, entityID)
	if err != nil {
		return err
	}
	rows := s.members[kind]
	for i, m := range rows {
		if m.entityID == entityID && m.profileID == profileID {
			s.members[kind] = append(rows[:i], rows[i+1:]...)
			if count != nil && *count > 0 {
				*count--
			}
			return nil
		}
	}
	return apperrors.ErrNotMember
}

func (s *membershipStore) ReconcileCounts(_ context.Context, kind models.MembershipKind) ([]models.CountCorrection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !kind.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown membership kind %q", kind))
	}

	actual := make(map[string]int)
	for _, m := range s.members[kind] {
		actual[m.entityID]++
	}

	var corrections []models.CountCorrection
	fix := func(id string, count *int) {
		if *count != actual[id] {
			corrections = append(corrections, models.CountCorrection{Kind: kind, ID: id, Previous: *count, Actual: actual[id]})
			*count = actual[id]
		}
	}
	if kind == models.MembershipCommunity {
		for _, c := range s.communities {
			fix(c.ID, &c.MemberCount)
		}
	} else {
		for _, g := range s.groups {
			fix(g.ID, &g.MemberCount)
		}
	}
	return corrections, nil
}
