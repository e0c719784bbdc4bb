package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
)

func postIDs(posts []dto.PostView) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func findPost(t *testing.T, posts []dto.PostView, id string) dto.PostView {
	t.Helper()
	for _, p := range posts {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("post %s not in feed", id)
	return dto.PostView{}
}

func TestCreatePostStampsSchool(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Hillside")
	author := f.viewer(t, "writer", school)

	feed, err := f.svc.Feed.CreatePost(f.ctx, author, &dto.CreatePostRequest{Content: "  first!  "}, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "first!", feed[0].Content)
	assert.Equal(t, author.ProfileID, feed[0].AuthorID)
	require.NotNil(t, feed[0].SchoolID)
	assert.Equal(t, school.ID, *feed[0].SchoolID)
	require.NotNil(t, feed[0].AuthorUsername)
	assert.Equal(t, "writer", *feed[0].AuthorUsername)
	assert.NotNil(t, feed[0].ImageURLs)
	assert.Nil(t, feed[0].UserVote)

	_, err = f.svc.Feed.CreatePost(f.ctx, author, &dto.CreatePostRequest{Content: "   "}, FeedQuery{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.Feed.CreatePost(f.ctx, session.Guest(), &dto.CreatePostRequest{Content: "hi"}, FeedQuery{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	homeless := f.viewer(t, "homeless", nil)
	_, err = f.svc.Feed.CreatePost(f.ctx, homeless, &dto.CreatePostRequest{Content: "global"}, FeedQuery{})
	require.NoError(t, err)

	scoped, err := f.svc.Feed.ListPosts(f.ctx, session.Guest(), FeedQuery{SchoolID: school.ID})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "first!", scoped[0].Content)

	all, err := f.svc.Feed.ListPosts(f.ctx, session.Guest(), FeedQuery{Sort: SortNew})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "global", all[0].Content)
}

func TestVoteToggle(t *testing.T) {
	f := newFixture(t)
	author := f.viewer(t, "author", nil)
	voter := f.viewer(t, "voter", nil)
	other := f.viewer(t, "other", nil)

	feed, err := f.svc.Feed.CreatePost(f.ctx, author, &dto.CreatePostRequest{Content: "vote me"}, FeedQuery{})
	require.NoError(t, err)
	postID := feed[0].ID

	feed, err = f.svc.Feed.Vote(f.ctx, voter, postID, models.VoteUp, FeedQuery{})
	require.NoError(t, err)
	p := findPost(t, feed, postID)
	assert.Equal(t, 1, p.Votes)
	require.NotNil(t, p.UserVote)
	assert.Equal(t, models.VoteUp, *p.UserVote)

	// Same direction twice removes the vote.
	feed, err = f.svc.Feed.Vote(f.ctx, voter, postID, models.VoteUp, FeedQuery{})
	require.NoError(t, err)
	p = findPost(t, feed, postID)
	assert.Equal(t, 0, p.Votes)
	assert.Nil(t, p.UserVote)

	_, err = f.svc.Feed.Vote(f.ctx, voter, postID, models.VoteUp, FeedQuery{})
	require.NoError(t, err)
	feed, err = f.svc.Feed.Vote(f.ctx, voter, postID, models.VoteDown, FeedQuery{})
	require.NoError(t, err)
	p = findPost(t, feed, postID)
	assert.Equal(t, -1, p.Votes)
	require.NotNil(t, p.UserVote)
	assert.Equal(t, models.VoteDown, *p.UserVote)

	feed, err = f.svc.Feed.Vote(f.ctx, other, postID, models.VoteDown, FeedQuery{})
	require.NoError(t, err)
	assert.Equal(t, -2, findPost(t, feed, postID).Votes)

	votes, err := f.repos.Posts.ListVotes(f.ctx, []string{postID})
	require.NoError(t, err)
	assert.Len(t, votes, 2)

	guestFeed, err := f.svc.Feed.ListPosts(f.ctx, session.Guest(), FeedQuery{})
	require.NoError(t, err)
	assert.Nil(t, findPost(t, guestFeed, postID).UserVote)
	assert.Equal(t, -2, findPost(t, guestFeed, postID).Votes)

	_, err = f.svc.Feed.Vote(f.ctx, session.Guest(), postID, models.VoteUp, FeedQuery{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, err = f.svc.Feed.Vote(f.ctx, voter, postID, models.VoteDirection("sideways"), FeedQuery{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = f.svc.Feed.Vote(f.ctx, voter, "missing", models.VoteUp, FeedQuery{})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestTallyVotes(t *testing.T) {
	entries := []*models.PostEntry{
		{Post: models.Post{ID: "p1"}},
		{Post: models.Post{ID: "p2"}},
	}
	votes := []*models.Vote{
		{PostID: "p1", UserID: "u1", VoteType: models.VoteUp},
		{PostID: "p1", UserID: "u2", VoteType: models.VoteUp},
		{PostID: "p1", UserID: "u3", VoteType: models.VoteDown},
		{PostID: "p2", UserID: "u1", VoteType: models.VoteDown},
		{PostID: "gone", UserID: "u1", VoteType: models.VoteUp},
	}

	views := TallyVotes(entries, votes, "u1")
	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].Votes)
	assert.Equal(t, models.VoteUp, *views[0].UserVote)
	assert.Equal(t, -1, views[1].Votes)
	assert.Equal(t, models.VoteDown, *views[1].UserVote)

	views = TallyVotes(entries, votes, "")
	assert.Nil(t, views[0].UserVote)
	assert.Nil(t, views[1].UserVote)
}

func TestSortModes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := func() []dto.PostView {
		return []dto.PostView{
			{ID: "a", Votes: 5, CreatedAt: now.Add(-2 * time.Hour)},
			{ID: "b", Votes: 9, CreatedAt: now.Add(-3 * time.Hour)},
			{ID: "c", Votes: 5, CreatedAt: now.Add(-time.Hour)},
			{ID: "d", Votes: 1, CreatedAt: now},
		}
	}

	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortHot, []string{"b", "a", "c", "d"}},
		{SortNew, []string{"d", "c", "a", "b"}},
		// d is zero ms old and clamps to 1 ms, so one vote outranks everything.
		{SortTrending, []string{"d", "c", "b", "a"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := posts()
			require.NoError(t, Sort(got, tt.mode, now))
			assert.Equal(t, tt.want, postIDs(got))
		})
	}

	assert.ErrorIs(t, Sort(posts(), SortMode("top"), now), apperrors.ErrValidationFailed)
}

func TestSortTrendingClampsFutureTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := []dto.PostView{
		{ID: "old", Votes: 100, CreatedAt: now.Add(-time.Second)},
		{ID: "skewed", Votes: 1, CreatedAt: now.Add(time.Minute)},
	}
	require.NoError(t, Sort(posts, SortTrending, now))
	assert.Equal(t, []string{"skewed", "old"}, postIDs(posts))
}

func TestParseSortMode(t *testing.T) {
	mode, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortHot, mode)

	mode, err = ParseSortMode(" NEW ")
	require.NoError(t, err)
	assert.Equal(t, SortNew, mode)

	_, err = ParseSortMode("best")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestListPostsDefaultsToHot(t *testing.T) {
	f := newFixture(t)
	author := f.viewer(t, "author", nil)
	voter := f.viewer(t, "voter", nil)

	_, err := f.svc.Feed.CreatePost(f.ctx, author, &dto.CreatePostRequest{Content: "older"}, FeedQuery{})
	require.NoError(t, err)
	_, err = f.svc.Feed.CreatePost(f.ctx, author, &dto.CreatePostRequest{Content: "newer"}, FeedQuery{})
	require.NoError(t, err)

	byNew, err := f.svc.Feed.ListPosts(f.ctx, session.Guest(), FeedQuery{Sort: SortNew})
	require.NoError(t, err)
	require.Len(t, byNew, 2)
	require.Equal(t, "newer", byNew[0].Content)
	older := byNew[1].ID

	_, err = f.svc.Feed.Vote(f.ctx, voter, older, models.VoteUp, FeedQuery{})
	require.NoError(t, err)

	feed, err := f.svc.Feed.ListPosts(f.ctx, session.Guest(), FeedQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{older, byNew[0].ID}, postIDs(feed))
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	author := f.viewer(t, "author", nil)
	reader := f.viewer(t, "reader", nil)

	feed, err := f.svc.Feed.CreatePost(f.ctx, author, &dto.CreatePostRequest{Content: "discuss"}, FeedQuery{})
	require.NoError(t, err)
	postID := feed[0].ID

	sub := f.broker.Subscribe(models.RelationNotifications, realtime.Eq("profile_id", author.ProfileID))
	defer sub.Close()

	comment, err := f.svc.Feed.AddComment(f.ctx, reader, postID, "nice post")
	require.NoError(t, err)
	assert.Equal(t, "nice post", comment.Content)
	require.NotNil(t, comment.AuthorUsername)
	assert.Equal(t, "reader", *comment.AuthorUsername)

	var n models.Notification
	require.NoError(t, recv(t, sub.C).Decode(&n))
	assert.Equal(t, models.NotificationComment, n.Type)
	require.NotNil(t, n.LinkURL)
	assert.Equal(t, "/posts/"+postID, *n.LinkURL)

	// Authors commenting on their own post are not notified.
	_, err = f.svc.Feed.AddComment(f.ctx, author, postID, "thanks")
	require.NoError(t, err)
	assertQuiet(t, sub.C)

	comments, err := f.svc.Feed.ListComments(f.ctx, postID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "nice post", comments[0].Content)
	assert.Equal(t, "thanks", comments[1].Content)

	feed, err = f.svc.Feed.ListPosts(f.ctx, session.Guest(), FeedQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, findPost(t, feed, postID).CommentCount)

	_, err = f.svc.Feed.AddComment(f.ctx, reader, postID, "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = f.svc.Feed.AddComment(f.ctx, reader, "missing", "hello")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	_, err = f.svc.Feed.ListComments(f.ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestUploadImageDisabled(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "uploader", nil)

	_, err := f.svc.Feed.UploadImage(f.ctx, v, nil)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	_, err = f.svc.Feed.UploadImage(f.ctx, session.Guest(), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
