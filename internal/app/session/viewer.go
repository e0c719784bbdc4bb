// Package session carries the resolved caller through every aggregator call.
package session

import (
	"context"

	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// Viewer is the caller of an aggregator operation. It is built once when a
// session is established (token validated, profile resolved) and dropped at
// the end of the request or websocket session. A Viewer with no UserID is a guest.
type Viewer struct {
	UserID     string
	Email      string
	ProfileID  string
	Username   string
	SchoolID   *string
	GradeLevel *string
	Reputation int
}

// Guest returns the viewer used for unauthenticated requests.
func Guest() *Viewer {
	return &Viewer{}
}

// IsGuest reports whether v carries no authenticated identity.
func (v *Viewer) IsGuest() bool {
	return v == nil || v.UserID == ""
}

// HasProfile reports whether the session resolved to a profile.
func (v *Viewer) HasProfile() bool {
	return !v.IsGuest() && v.ProfileID != ""
}

// RequireProfile short-circuits operations that need an authenticated profile.
func (v *Viewer) RequireProfile() error {
	if v.IsGuest() {
		return apperrors.ErrUnauthenticated
	}
	if v.ProfileID == "" {
		return apperrors.ErrProfileNotFound
	}
	return nil
}

// School returns the viewer's school id, or "" when there is none.
func (v *Viewer) School() string {
	if v == nil || v.SchoolID == nil {
		return ""
	}
	return *v.SchoolID
}

type viewerKey struct{}

// WithViewer stores v in ctx.
func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// FromContext returns the viewer stored in ctx, or a guest.
func FromContext(ctx context.Context) *Viewer {
	if v, ok := ctx.Value(viewerKey{}).(*Viewer); ok && v != nil {
		return v
	}
	return Guest()
}
