package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/services"
)

// ChallengeController serves challenges, school progress and rivalries
type ChallengeController struct {
	challenges services.ChallengeService
}

// NewChallengeController creates a new ChallengeController
func NewChallengeController(challenges services.ChallengeService) *ChallengeController {
	return &ChallengeController{challenges: challenges}
}

// schoolScope returns the schoolId query parameter, falling back to the
// caller's school. Empty means every school.
func schoolScope(ctx *gin.Context) (string, bool) {
	schoolID, valid := optionalSchoolID(ctx)
	if !valid {
		return "", false
	}
	if schoolID == "" {
		schoolID = viewerOf(ctx).School()
	}
	return schoolID, true
}

// ListChallenges returns every challenge
// @Summary List challenges
// @Tags challenges
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Challenge}
// @Router /challenges [get]
func (c *ChallengeController) ListChallenges(ctx *gin.Context) {
	challenges, err := c.challenges.ListChallenges(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, challenges)
}

// ListProgress returns school progress rows
// @Summary School progress
// @Tags challenges
// @Produce json
// @Param schoolId query string false "School, defaults to the caller's"
// @Success 200 {object} dto.APIResponse{data=[]dto.SchoolProgress}
// @Router /challenges/progress [get]
func (c *ChallengeController) ListProgress(ctx *gin.Context) {
	schoolID, valid := schoolScope(ctx)
	if !valid {
		return
	}

	progress, err := c.challenges.ListSchoolProgress(ctx.Request.Context(), schoolID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, progress)
}

// ListRivalries returns rivalries with each side's total points
// @Summary Rivalries
// @Tags challenges
// @Produce json
// @Param schoolId query string false "School, defaults to the caller's"
// @Success 200 {object} dto.APIResponse{data=[]dto.RivalryView}
// @Router /challenges/rivalries [get]
func (c *ChallengeController) ListRivalries(ctx *gin.Context) {
	schoolID, valid := schoolScope(ctx)
	if !valid {
		return
	}

	rivalries, err := c.challenges.ListRivalries(ctx.Request.Context(), schoolID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, rivalries)
}

// Leaderboard returns the top schools
// @Summary Leaderboard
// @Tags challenges
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.LeaderboardEntry}
// @Router /challenges/leaderboard [get]
func (c *ChallengeController) Leaderboard(ctx *gin.Context) {
	board, err := c.challenges.Leaderboard(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, board)
}
