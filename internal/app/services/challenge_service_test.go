package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

func (f *fixture) challenge(t *testing.T, title string, max int) *models.Challenge {
	t.Helper()
	c := &models.Challenge{Title: title, MaxPoints: max}
	require.NoError(t, f.repos.Challenges.CreateChallenge(f.ctx, c))
	return c
}

func (f *fixture) award(t *testing.T, school *models.School, c *models.Challenge, points int) *models.SchoolChallenge {
	t.Helper()
	sc, err := f.svc.Challenges.AwardPoints(f.ctx, &dto.AwardPointsRequest{SchoolID: school.ID, ChallengeID: c.ID, Points: points})
	require.NoError(t, err)
	return sc
}

func TestRivalryScoresSumAllChallenges(t *testing.T) {
	f := newFixture(t)
	north := f.school(t, "North")
	south := f.school(t, "South")
	east := f.school(t, "East")
	reading := f.challenge(t, "Reading", 1000)
	recycling := f.challenge(t, "Recycling", 1000)

	f.award(t, north, recycling, 30)
	f.award(t, south, reading, 50)
	f.award(t, north, reading, 40)
	f.award(t, south, recycling, 5)
	f.award(t, east, reading, 999)

	require.NoError(t, f.repos.Challenges.CreateRivalry(f.ctx, &models.Rivalry{SchoolAID: north.ID, SchoolBID: south.ID}))
	require.NoError(t, f.repos.Challenges.CreateRivalry(f.ctx, &models.Rivalry{SchoolAID: east.ID, SchoolBID: north.ID}))

	rivalries, err := f.svc.Challenges.ListRivalries(f.ctx, south.ID)
	require.NoError(t, err)
	require.Len(t, rivalries, 1)
	r := rivalries[0]
	assert.Equal(t, 70, r.SchoolA.Points)
	assert.Equal(t, 55, r.SchoolB.Points)
	require.NotNil(t, r.SchoolA.Name)
	assert.Equal(t, "North", *r.SchoolA.Name)

	all, err := f.svc.Challenges.ListRivalries(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 999, all[1].SchoolA.Points)
	assert.Equal(t, 70, all[1].SchoolB.Points)

	none, err := f.svc.Challenges.ListRivalries(f.ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	progress, err := f.svc.Challenges.ListSchoolProgress(f.ctx, north.ID)
	require.NoError(t, err)
	require.Len(t, progress, 2)
	assert.Equal(t, recycling.ID, progress[0].ChallengeID)
	require.NotNil(t, progress[0].Challenge)
	assert.Equal(t, "Recycling", progress[0].Challenge.Title)
}

func TestBuildLeaderboard(t *testing.T) {
	name := func(s string) *string { return &s }
	var entries []*models.SchoolChallengeEntry
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("s%02d", i)
		entries = append(entries, &models.SchoolChallengeEntry{
			SchoolChallenge: models.SchoolChallenge{SchoolID: id, CurrentPoints: i * 10},
			SchoolName:      name("School " + id),
		})
	}
	// s00 gains enough in a second challenge to tie s11 and is encountered first.
	entries = append(entries, &models.SchoolChallengeEntry{
		SchoolChallenge: models.SchoolChallenge{SchoolID: "s00", CurrentPoints: 110},
	})

	board := BuildLeaderboard(entries, LeaderboardSize)
	require.Len(t, board, LeaderboardSize)
	assert.Equal(t, "s00", board[0].SchoolID)
	assert.Equal(t, 110, board[0].TotalPoints)
	assert.Equal(t, "School s00", *board[0].SchoolName)
	assert.Equal(t, "s11", board[1].SchoolID)
	assert.Equal(t, "s10", board[2].SchoolID)
	for i, e := range board {
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, "s03", board[9].SchoolID)

	assert.Empty(t, BuildLeaderboard(nil, LeaderboardSize))
	assert.Len(t, BuildLeaderboard(entries, 0), 12)
}

func TestLeaderboardCache(t *testing.T) {
	f := newFixture(t)
	north := f.school(t, "North")
	south := f.school(t, "South")
	reading := f.challenge(t, "Reading", 100)

	f.award(t, north, reading, 20)
	board, err := f.svc.Challenges.Leaderboard(f.ctx)
	require.NoError(t, err)
	require.Len(t, board, 1)

	// Writes that bypass the service are not visible until the entry is dropped.
	_, err = f.repos.Challenges.AddPoints(f.ctx, south.ID, reading.ID, 50)
	require.NoError(t, err)
	board, err = f.svc.Challenges.Leaderboard(f.ctx)
	require.NoError(t, err)
	require.Len(t, board, 1)

	f.award(t, north, reading, 5)
	board, err = f.svc.Challenges.Leaderboard(f.ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, south.ID, board[0].SchoolID)
	assert.Equal(t, 50, board[0].TotalPoints)
	assert.Equal(t, 25, board[1].TotalPoints)

	var cached []dto.LeaderboardEntry
	found, err := f.cache.Get(f.ctx, leaderboardKey, &cached)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, board, cached)
}

func TestAwardPoints(t *testing.T) {
	f := newFixture(t)
	north := f.school(t, "North")
	reading := f.challenge(t, "Reading", 100)

	assert.Equal(t, 80, f.award(t, north, reading, 80).CurrentPoints)
	assert.Equal(t, 100, f.award(t, north, reading, 80).CurrentPoints)
	assert.Equal(t, 70, f.award(t, north, reading, -30).CurrentPoints)
	assert.Equal(t, 0, f.award(t, north, reading, -500).CurrentPoints)

	_, err := f.svc.Challenges.AwardPoints(f.ctx, &dto.AwardPointsRequest{SchoolID: north.ID, ChallengeID: reading.ID})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = f.svc.Challenges.AwardPoints(f.ctx, &dto.AwardPointsRequest{SchoolID: north.ID, ChallengeID: "missing", Points: 1})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	challenges, err := f.svc.Challenges.ListChallenges(f.ctx)
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, reading.ID, challenges[0].ID)
}
