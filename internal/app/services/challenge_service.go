package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/cache"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
)

// LeaderboardSize is the number of schools the leaderboard keeps
const LeaderboardSize = 10

const leaderboardKey = "leaderboard"

// ChallengeService reads challenge progress, rivalries and the school leaderboard
type ChallengeService interface {
	ListChallenges(ctx context.Context) ([]*models.Challenge, error)
	ListSchoolProgress(ctx context.Context, schoolID string) ([]dto.SchoolProgress, error)
	// ListRivalries scores each side as the sum of that school's points across all challenges.
	ListRivalries(ctx context.Context, schoolID string) ([]dto.RivalryView, error)
	Leaderboard(ctx context.Context) ([]dto.LeaderboardEntry, error)
	// AwardPoints adds points to a school's progress, capped at the challenge's max.
	AwardPoints(ctx context.Context, req *dto.AwardPointsRequest) (*models.SchoolChallenge, error)
}

type challengeServiceImpl struct {
	challenges repositories.ChallengeStore
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewChallengeService creates a new ChallengeService. A nil cache disables leaderboard caching.
func NewChallengeService(repos *repositories.Repositories, c cache.Cache, cacheTTL time.Duration, logger zerolog.Logger) ChallengeService {
	if c == nil {
		c = cache.Nop{}
	}
	return &challengeServiceImpl{
		challenges: repos.Challenges,
		cache:      c,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// ListChallenges returns every challenge, newest first
func (s *challengeServiceImpl) ListChallenges(ctx context.Context) ([]*models.Challenge, error) {
	challenges, err := s.challenges.ListChallenges(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list challenges")
		return nil, fmt.Errorf("error listing challenges: %w", err)
	}
	if challenges == nil {
		challenges = []*models.Challenge{}
	}
	return challenges, nil
}

// ListSchoolProgress returns progress rows, optionally for one school
func (s *challengeServiceImpl) ListSchoolProgress(ctx context.Context, schoolID string) ([]dto.SchoolProgress, error) {
	entries, err := s.challenges.ListProgress(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("error listing school progress: %w", err)
	}
	views := make([]dto.SchoolProgress, 0, len(entries))
	for _, e := range entries {
		views = append(views, dto.NewSchoolProgress(e))
	}
	return views, nil
}

// ListRivalries scores every rivalry with one aggregate read for all involved schools
func (s *challengeServiceImpl) ListRivalries(ctx context.Context, schoolID string) ([]dto.RivalryView, error) {
	rivalries, err := s.challenges.ListRivalries(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("error listing rivalries: %w", err)
	}
	if len(rivalries) == 0 {
		return []dto.RivalryView{}, nil
	}

	seen := make(map[string]struct{}, len(rivalries)*2)
	ids := make([]string, 0, len(rivalries)*2)
	for _, r := range rivalries {
		for _, id := range []string{r.SchoolAID, r.SchoolBID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	totals, err := s.challenges.PointTotals(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error summing school points: %w", err)
	}

	views := make([]dto.RivalryView, 0, len(rivalries))
	for _, r := range rivalries {
		views = append(views, dto.RivalryView{
			ID:        r.ID,
			SchoolA:   dto.RivalSide{SchoolID: r.SchoolAID, Name: r.SchoolAName, Points: totals[r.SchoolAID]},
			SchoolB:   dto.RivalSide{SchoolID: r.SchoolBID, Name: r.SchoolBName, Points: totals[r.SchoolBID]},
			CreatedAt: r.CreatedAt,
		})
	}
	return views, nil
}

// Leaderboard returns the top schools by total points, served from cache when fresh
func (s *challengeServiceImpl) Leaderboard(ctx context.Context) ([]dto.LeaderboardEntry, error) {
	var cached []dto.LeaderboardEntry
	found, err := s.cache.Get(ctx, leaderboardKey, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Leaderboard cache read failed")
	} else if found {
		return cached, nil
	}

	entries, err := s.challenges.ListProgress(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("error listing school progress: %w", err)
	}
	board := BuildLeaderboard(entries, LeaderboardSize)

	if err := s.cache.Set(ctx, leaderboardKey, board, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("Leaderboard cache write failed")
	}
	return board, nil
}

// BuildLeaderboard sums current points per school, sorts descending with
// ties in encounter order, keeps the first limit schools and ranks them from 1.
func BuildLeaderboard(entries []*models.SchoolChallengeEntry, limit int) []dto.LeaderboardEntry {
	index := make(map[string]int)
	board := []dto.LeaderboardEntry{}
	for _, e := range entries {
		i, ok := index[e.SchoolID]
		if !ok {
			i = len(board)
			index[e.SchoolID] = i
			board = append(board, dto.LeaderboardEntry{SchoolID: e.SchoolID, SchoolName: e.SchoolName})
		}
		board[i].TotalPoints += e.CurrentPoints
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].TotalPoints > board[j].TotalPoints
	})
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	for i := range board {
		board[i].Rank = i + 1
	}
	return board
}

// AwardPoints upserts progress and drops the cached leaderboard
func (s *challengeServiceImpl) AwardPoints(ctx context.Context, req *dto.AwardPointsRequest) (*models.SchoolChallenge, error) {
	if req.Points == 0 {
		return nil, apperrors.NewValidationError("points must not be zero")
	}

	progress, err := s.challenges.AddPoints(ctx, req.SchoolID, req.ChallengeID, req.Points)
	if err != nil {
		s.logger.Error().Err(err).
			Str("schoolID", req.SchoolID).
			Str("challengeID", req.ChallengeID).
			Msg("Failed to award points")
		return nil, err
	}

	if err := s.cache.Delete(ctx, leaderboardKey); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate leaderboard cache")
	}

	s.logger.Info().
		Str("schoolID", req.SchoolID).
		Str("challengeID", req.ChallengeID).
		Int("points", req.Points).
		Int("currentPoints", progress.CurrentPoints).
		Msg("Points awarded")
	monitoring.RecordEvent("award")
	return progress, nil
}
