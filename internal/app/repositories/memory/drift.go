package memory

import "github.com/yigit/schoolyard/internal/app/models"

// Drift writes rows behind the repositories' contracts, producing the state an
// interrupted two-step write or an external writer leaves behind. Only tests use it.
type Drift struct {
	s *Store
}

func (s *Store) Drift() Drift {
	return Drift{s: s}
}

// AcceptWithoutFriendship flips a request to accepted and skips the friendship insert.
func (d Drift) AcceptWithoutFriendship(requestID string) bool {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	for _, r := range d.s.requests {
		if r.ID == requestID {
			r.Status = models.RequestAccepted
			r.UpdatedAt = d.s.stamp()
			return true
		}
	}
	return false
}

// SetMemberCount overwrites a denormalized counter without touching the edges.
func (d Drift) SetMemberCount(kind models.MembershipKind, id string, n int) bool {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	count, err := d.s.counter(kind, id)
	if err != nil || count == nil {
		return false
	}
	*count = n
	return true
}
