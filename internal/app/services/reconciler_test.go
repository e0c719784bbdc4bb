package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
)

func TestReconcilerRepairsDrift(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Central")
	a := f.viewer(t, "alice", school)
	b := f.viewer(t, "bruno", school)
	chess := f.community(t, "chess", true)

	req, err := f.svc.Friends.SendRequest(f.ctx, a, b.ProfileID)
	require.NoError(t, err)
	require.True(t, f.store.Drift().AcceptWithoutFriendship(req.ID))

	groups, err := f.svc.Memberships.CreateGroup(f.ctx, a, &dto.CreateGroupRequest{Name: "Chess club", Type: "club"})
	require.NoError(t, err)
	_, err = f.svc.Memberships.JoinGroup(f.ctx, b, groups[0].ID)
	require.NoError(t, err)
	require.True(t, f.store.Drift().SetMemberCount(models.MembershipGroup, groups[0].ID, 0))
	require.True(t, f.store.Drift().SetMemberCount(models.MembershipCommunity, chess.ID, 3))

	report, err := f.svc.Reconciler.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FriendshipsCreated)
	assert.ElementsMatch(t, []models.CountCorrection{
		{Kind: models.MembershipCommunity, ID: chess.ID, Previous: 3, Actual: 0},
		{Kind: models.MembershipGroup, ID: groups[0].ID, Previous: 0, Actual: 1},
	}, report.CountCorrections)

	friends, err := f.svc.Friends.ListFriends(f.ctx, b)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].Username)

	report, err = f.svc.Reconciler.Run(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.FriendshipsCreated)
	assert.Empty(t, report.CountCorrections)
}

func TestReconcilerSchedule(t *testing.T) {
	f := newFixture(t)
	a := f.viewer(t, "alice", nil)
	b := f.viewer(t, "bruno", nil)
	req, err := f.svc.Friends.SendRequest(f.ctx, a, b.ProfileID)
	require.NoError(t, err)
	require.True(t, f.store.Drift().AcceptWithoutFriendship(req.ID))

	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan struct{})
	go func() {
		f.svc.Reconciler.Schedule(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		orphans, err := f.repos.Friends.ListOrphanedAccepts(f.ctx)
		return err == nil && len(orphans) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	// A non-positive interval returns immediately.
	f.svc.Reconciler.Schedule(f.ctx, 0)
}
