package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/repositories/memory"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/auth"
	"github.com/yigit/schoolyard/internal/pkg/cache"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fixture struct {
	ctx    context.Context
	store  *memory.Store
	repos  *repositories.Repositories
	broker *realtime.Broker
	cache  *cache.MemoryCache
	jwt    *auth.JWTService
	svc    *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	broker := realtime.NewBroker(zerolog.Nop(), 16)
	store := memory.New(broker)
	repos := store.Repositories()
	jwt := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "schoolyard-test",
	})
	mc := cache.NewMemoryCache()
	return &fixture{
		ctx:    context.Background(),
		store:  store,
		repos:  repos,
		broker: broker,
		cache:  mc,
		jwt:    jwt,
		svc:    New(repos, jwt, Options{Cache: mc, LeaderboardTTL: time.Minute}, zerolog.Nop()),
	}
}

func (f *fixture) school(t *testing.T, name string) *models.School {
	t.Helper()
	s := &models.School{Name: name}
	require.NoError(t, f.repos.Schools.Create(f.ctx, s))
	return s
}

// viewer creates a user with a profile and resolves it the way the auth middleware does.
func (f *fixture) viewer(t *testing.T, username string, school *models.School) *session.Viewer {
	t.Helper()
	u := &models.User{Email: username + "@example.com", PasswordHash: "unused"}
	p := &models.Profile{Username: username}
	if school != nil {
		p.SchoolID = &school.ID
	}
	require.NoError(t, f.repos.Users.CreateWithProfile(f.ctx, u, p))
	return f.resolve(t, u.ID, u.Email)
}

func (f *fixture) resolve(t *testing.T, userID, email string) *session.Viewer {
	t.Helper()
	v, err := f.svc.Identity.ResolveViewer(f.ctx, &auth.Claims{UserID: userID, Email: email})
	require.NoError(t, err)
	return v
}

func (f *fixture) tags(t *testing.T, v *session.Viewer, tags ...string) {
	t.Helper()
	for _, tag := range tags {
		require.NoError(t, f.repos.Interests.Add(f.ctx, v.ProfileID, tag))
	}
}

func strp(s string) *string {
	return &s
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected update %+v", v)
		}
	case <-time.After(50 * time.Millisecond):
	}
}
