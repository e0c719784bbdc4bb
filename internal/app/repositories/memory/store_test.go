package memory

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
)

func newProfile(t *testing.T, repos *repositories.Repositories, username string, schoolID *string) *models.Profile {
	t.Helper()
	user := &models.User{Email: username + "@example.com", PasswordHash: "x"}
	profile := &models.Profile{Username: username, SchoolID: schoolID}
	require.NoError(t, repos.Users.CreateWithProfile(context.Background(), user, profile))
	return profile
}

func TestCreateWithProfileConflicts(t *testing.T) {
	repos := New(nil).Repositories()
	ctx := context.Background()

	newProfile(t, repos, "ada", nil)

	err := repos.Users.CreateWithProfile(ctx,
		&models.User{Email: "ada@example.com"}, &models.Profile{Username: "other"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	err = repos.Users.CreateWithProfile(ctx,
		&models.User{Email: "new@example.com"}, &models.Profile{Username: "ada"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)

	_, err = repos.Users.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestFriendRequestLifecycle(t *testing.T) {
	repos := New(nil).Repositories()
	ctx := context.Background()
	a := newProfile(t, repos, "a", nil)
	b := newProfile(t, repos, "b", nil)

	req := &models.FriendRequest{SenderID: a.ID, ReceiverID: b.ID}
	require.NoError(t, repos.Friends.CreateRequest(ctx, req))
	assert.Equal(t, models.RequestPending, req.Status)

	// a pending request blocks one in the opposite direction
	err := repos.Friends.CreateRequest(ctx, &models.FriendRequest{SenderID: b.ID, ReceiverID: a.ID})
	assert.ErrorIs(t, err, apperrors.ErrRequestExists)

	// only the receiver can accept
	_, err = repos.Friends.AcceptRequest(ctx, req.ID, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)

	f, err := repos.Friends.AcceptRequest(ctx, req.ID, b.ID)
	require.NoError(t, err)
	first, second := models.CanonicalPair(a.ID, b.ID)
	assert.Equal(t, first, f.ProfileID1)
	assert.Equal(t, second, f.ProfileID2)

	_, err = repos.Friends.AcceptRequest(ctx, req.ID, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)

	created, err := repos.Friends.EnsureFriendship(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created)

	friendships, err := repos.Friends.ListFriendships(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, friendships, 1)
}

func TestListOrphanedAccepts(t *testing.T) {
	store := New(nil)
	repos := store.Repositories()
	ctx := context.Background()
	a := newProfile(t, repos, "a", nil)
	b := newProfile(t, repos, "b", nil)

	req := &models.FriendRequest{SenderID: a.ID, ReceiverID: b.ID}
	require.NoError(t, repos.Friends.CreateRequest(ctx, req))
	require.True(t, store.Drift().AcceptWithoutFriendship(req.ID))

	orphans, err := repos.Friends.ListOrphanedAccepts(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, req.ID, orphans[0].ID)

	_, err = repos.Friends.EnsureFriendship(ctx, a.ID, b.ID)
	require.NoError(t, err)
	orphans, err = repos.Friends.ListOrphanedAccepts(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestJoinLeaveAndReconcile(t *testing.T) {
	store := New(nil)
	repos := store.Repositories()
	ctx := context.Background()
	p := newProfile(t, repos, "p", nil)

	c := &models.Community{Name: "Chess", Slug: "chess", IsGlobal: true}
	require.NoError(t, repos.Memberships.CreateCommunity(ctx, c))

	require.NoError(t, repos.Memberships.Join(ctx, models.MembershipCommunity, c.ID, p.ID))
	assert.ErrorIs(t, repos.Memberships.Join(ctx, models.MembershipCommunity, c.ID, p.ID), apperrors.ErrAlreadyMember)

	got, err := repos.Memberships.GetCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MemberCount)

	require.NoError(t, repos.Memberships.Leave(ctx, models.MembershipCommunity, c.ID, p.ID))
	assert.ErrorIs(t, repos.Memberships.Leave(ctx, models.MembershipCommunity, c.ID, p.ID), apperrors.ErrNotMember)

	got, err = repos.Memberships.GetCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MemberCount)

	require.True(t, store.Drift().SetMemberCount(models.MembershipCommunity, c.ID, 7))
	corrections, err := repos.Memberships.ReconcileCounts(ctx, models.MembershipCommunity)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, 7, corrections[0].Previous)
	assert.Equal(t, 0, corrections[0].Actual)

	_, err = repos.Memberships.MemberOf(ctx, models.MembershipKind("club"), p.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAddPointsIsCapped(t *testing.T) {
	repos := New(nil).Repositories()
	ctx := context.Background()
	school := &models.School{Name: "North"}
	require.NoError(t, repos.Schools.Create(ctx, school))
	ch := &models.Challenge{Title: "Recycling", MaxPoints: 100}
	require.NoError(t, repos.Challenges.CreateChallenge(ctx, ch))

	sc, err := repos.Challenges.AddPoints(ctx, school.ID, ch.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, sc.CurrentPoints)

	sc, err = repos.Challenges.AddPoints(ctx, school.ID, ch.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 100, sc.CurrentPoints)

	totals, err := repos.Challenges.PointTotals(ctx, []string{school.ID, "other"})
	require.NoError(t, err)
	assert.Equal(t, 100, totals[school.ID])
	assert.Zero(t, totals["other"])
}

func TestListMessagesReturnsLatestAscending(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repos := New(nil, WithClock(func() time.Time { return start })).Repositories()
	ctx := context.Background()
	school := &models.School{Name: "North"}
	require.NoError(t, repos.Schools.Create(ctx, school))
	sender := newProfile(t, repos, "sender", &school.ID)
	chat := &models.GroupChat{SchoolID: school.ID, Name: "General"}
	require.NoError(t, repos.Chats.CreateChat(ctx, chat))

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, repos.Chats.CreateMessage(ctx, &models.Message{ChatID: chat.ID, SenderID: sender.ID, Content: content}))
	}

	messages, err := repos.Chats.ListMessages(ctx, chat.ID, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "two", messages[0].Content)
	assert.Equal(t, "three", messages[1].Content)
	require.NotNil(t, messages[1].SenderUsername)
	assert.Equal(t, "sender", *messages[1].SenderUsername)
	assert.True(t, messages[0].CreatedAt.Before(messages[1].CreatedAt))
}

func TestCreateNotificationPublishes(t *testing.T) {
	broker := realtime.NewBroker(zerolog.Nop(), 4)
	repos := New(broker).Repositories()
	ctx := context.Background()
	p := newProfile(t, repos, "p", nil)

	sub := broker.Subscribe(models.RelationNotifications, realtime.Eq("profile_id", p.ID))
	defer sub.Close()

	n := &models.Notification{ProfileID: p.ID, Type: models.NotificationComment, Title: "hi"}
	require.NoError(t, repos.Notifications.Create(ctx, n))

	select {
	case ev := <-sub.C:
		var got models.Notification
		require.NoError(t, ev.Decode(&got))
		assert.Equal(t, n.ID, got.ID)
		assert.False(t, got.IsRead)
	case <-time.After(time.Second):
		t.Fatal("notification was not published")
	}

	count, err := repos.Notifications.CountUnread(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	changed, err := repos.Notifications.MarkAllRead(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)
}

func TestUpsertRatingKeepsOneRowPerRater(t *testing.T) {
	repos := New(nil).Repositories()
	ctx := context.Background()
	school := &models.School{Name: "North"}
	require.NoError(t, repos.Schools.Create(ctx, school))
	teacher := &models.Teacher{SchoolID: school.ID, Name: "Ms. Smith"}
	require.NoError(t, repos.Teachers.Create(ctx, teacher))

	for _, score := range []int{2, 5} {
		require.NoError(t, repos.Teachers.UpsertRating(ctx, &models.Rating{
			TargetType: models.RatingTargetTeacher, TargetID: teacher.ID, RaterID: "rater", Score: score,
		}))
	}
	stats, err := repos.Teachers.RatingStats(ctx, models.RatingTargetTeacher, []string{teacher.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RatingStats{Sum: 5, Count: 1}, stats[teacher.ID])

	err = repos.Teachers.UpsertRating(ctx, &models.Rating{
		TargetType: models.RatingTargetTeacher, TargetID: teacher.ID, RaterID: "rater", Score: 6,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
