package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
)

func discoverNames(users []dto.DiscoverableUser) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func TestDiscoverRanking(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Lincoln")
	other := f.school(t, "Roosevelt")

	me := f.viewer(t, "me", school)
	x := f.viewer(t, "xavier", school)
	y := f.viewer(t, "yara", school)
	z := f.viewer(t, "zoe", school)
	f.viewer(t, "outsider", other)

	f.tags(t, me, "Gaming", "Music", "Art")
	f.tags(t, x, "Gaming", "Music")
	f.tags(t, y, "Music", "Art", "Sports")
	f.tags(t, z, "Sports")
	f.store.AddReputation(x.ProfileID, 10)
	f.store.AddReputation(y.ProfileID, 50)
	f.store.AddReputation(z.ProfileID, 100)

	users, err := f.svc.Friends.Discover(f.ctx, me)
	require.NoError(t, err)
	assert.Equal(t, []string{"yara", "xavier", "zoe"}, discoverNames(users))
	assert.ElementsMatch(t, []string{"Music", "Art"}, users[0].SharedInterests)
	assert.NotNil(t, users[2].SharedInterests)
	assert.Empty(t, users[2].SharedInterests)

	_, err = f.svc.Friends.SendRequest(f.ctx, z, me.ProfileID)
	require.NoError(t, err)
	req, err := f.svc.Friends.SendRequest(f.ctx, me, x.ProfileID)
	require.NoError(t, err)
	_, err = f.svc.Friends.AcceptRequest(f.ctx, x, req.ID)
	require.NoError(t, err)

	users, err = f.svc.Friends.Discover(f.ctx, me)
	require.NoError(t, err)
	require.Equal(t, []string{"yara", "zoe"}, discoverNames(users))
	assert.False(t, users[0].HasPendingRequest)
	assert.True(t, users[1].HasPendingRequest)
}

func TestDiscoverWithoutSchool(t *testing.T) {
	f := newFixture(t)
	me := f.viewer(t, "drifter", nil)

	users, err := f.svc.Friends.Discover(f.ctx, me)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	_, err = f.svc.Friends.Discover(f.ctx, session.Guest())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestRankDiscoverableIsStable(t *testing.T) {
	users := []dto.DiscoverableUser{
		{ProfileSummary: dto.ProfileSummary{Username: "a", ReputationPoints: 5}, SharedInterests: []string{"x"}},
		{ProfileSummary: dto.ProfileSummary{Username: "b", ReputationPoints: 5}, SharedInterests: []string{"y"}},
		{ProfileSummary: dto.ProfileSummary{Username: "c", ReputationPoints: 9}, SharedInterests: []string{}},
		{ProfileSummary: dto.ProfileSummary{Username: "d", ReputationPoints: 7}, SharedInterests: []string{"z"}},
	}
	RankDiscoverable(users)
	assert.Equal(t, []string{"d", "a", "b", "c"}, discoverNames(users))
}

func TestSendRequest(t *testing.T) {
	f := newFixture(t)
	a := f.viewer(t, "alice", nil)
	b := f.viewer(t, "bruno", nil)

	sub := f.broker.Subscribe(models.RelationNotifications, realtime.Filter{})
	defer sub.Close()

	view, err := f.svc.Friends.SendRequest(f.ctx, a, b.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, view.Status)
	require.NotNil(t, view.Receiver)
	assert.Equal(t, "bruno", view.Receiver.Username)

	ev := recv(t, sub.C)
	var n models.Notification
	require.NoError(t, ev.Decode(&n))
	assert.Equal(t, b.ProfileID, n.ProfileID)
	assert.Equal(t, models.NotificationFriendRequest, n.Type)

	_, err = f.svc.Friends.SendRequest(f.ctx, a, b.ProfileID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = f.svc.Friends.SendRequest(f.ctx, b, a.ProfileID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.svc.Friends.SendRequest(f.ctx, a, a.ProfileID)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.Friends.SendRequest(f.ctx, a, "missing")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	pending, err := f.svc.Friends.ListPendingRequests(f.ctx, b)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Sender)
	assert.Equal(t, "alice", pending[0].Sender.Username)

	sent, err := f.svc.Friends.ListSentRequests(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, view.ID, sent[0].ID)
}

func TestAcceptRequest(t *testing.T) {
	f := newFixture(t)
	a := f.viewer(t, "alice", nil)
	b := f.viewer(t, "bruno", nil)
	c := f.viewer(t, "chen", nil)

	req, err := f.svc.Friends.SendRequest(f.ctx, a, b.ProfileID)
	require.NoError(t, err)

	_, err = f.svc.Friends.AcceptRequest(f.ctx, c, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	_, err = f.svc.Friends.AcceptRequest(f.ctx, a, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Friends.AcceptRequest(f.ctx, b, req.ID); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)

	friendships, err := f.repos.Friends.ListFriendships(f.ctx, a.ProfileID)
	require.NoError(t, err)
	require.Len(t, friendships, 1)
	first, second := models.CanonicalPair(a.ProfileID, b.ProfileID)
	assert.Equal(t, first, friendships[0].ProfileID1)
	assert.Equal(t, second, friendships[0].ProfileID2)

	// The reverse direction once the first request is accepted still yields one friendship.
	back, err := f.svc.Friends.SendRequest(f.ctx, b, a.ProfileID)
	require.NoError(t, err)
	fs, err := f.svc.Friends.AcceptRequest(f.ctx, a, back.ID)
	require.NoError(t, err)
	assert.Equal(t, friendships[0].ID, fs.ID)

	friends, err := f.svc.Friends.ListFriends(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bruno", friends[0].Username)

	friends, err = f.svc.Friends.ListFriends(f.ctx, b)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].Username)
}

func TestRejectAndRemove(t *testing.T) {
	f := newFixture(t)
	a := f.viewer(t, "alice", nil)
	b := f.viewer(t, "bruno", nil)

	req, err := f.svc.Friends.SendRequest(f.ctx, a, b.ProfileID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Friends.RejectRequest(f.ctx, a, req.ID), apperrors.ErrResourceNotFound)
	require.NoError(t, f.svc.Friends.RejectRequest(f.ctx, b, req.ID))
	assert.ErrorIs(t, f.svc.Friends.RejectRequest(f.ctx, b, req.ID), apperrors.ErrResourceNotFound)

	pending, err := f.svc.Friends.ListPendingRequests(f.ctx, b)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A rejected request does not block a new one.
	req, err = f.svc.Friends.SendRequest(f.ctx, a, b.ProfileID)
	require.NoError(t, err)
	_, err = f.svc.Friends.AcceptRequest(f.ctx, b, req.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Friends.RemoveFriend(f.ctx, b, a.ProfileID))
	assert.ErrorIs(t, f.svc.Friends.RemoveFriend(f.ctx, a, b.ProfileID), apperrors.ErrResourceNotFound)

	friends, err := f.svc.Friends.ListFriends(f.ctx, a)
	require.NoError(t, err)
	assert.Empty(t, friends)
}
