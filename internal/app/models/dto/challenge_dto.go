package dto

import (
	"time"

	"github.com/yigit/schoolyard/internal/app/models"
)

// SchoolProgress is a school's progress row with its school name and challenge
type SchoolProgress struct {
	ID            string            `json:"id"`
	SchoolID      string            `json:"schoolId"`
	SchoolName    *string           `json:"schoolName,omitempty"`
	ChallengeID   string            `json:"challengeId"`
	CurrentPoints int               `json:"currentPoints"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Challenge     *models.Challenge `json:"challenge,omitempty"`
}

// NewSchoolProgress converts a joined progress row
func NewSchoolProgress(e *models.SchoolChallengeEntry) SchoolProgress {
	return SchoolProgress{
		ID:            e.ID,
		SchoolID:      e.SchoolID,
		SchoolName:    e.SchoolName,
		ChallengeID:   e.ChallengeID,
		CurrentPoints: e.CurrentPoints,
		UpdatedAt:     e.UpdatedAt,
		Challenge:     e.Challenge,
	}
}

// RivalSide is one school of a rivalry with its summed points
type RivalSide struct {
	SchoolID string  `json:"schoolId"`
	Name     *string `json:"name,omitempty"`
	Points   int     `json:"points"`
}

// RivalryView is a rivalry with both sides scored
type RivalryView struct {
	ID        string    `json:"id"`
	SchoolA   RivalSide `json:"schoolA"`
	SchoolB   RivalSide `json:"schoolB"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardEntry is one ranked school
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	SchoolID    string  `json:"schoolId"`
	SchoolName  *string `json:"schoolName,omitempty"`
	TotalPoints int     `json:"totalPoints"`
}

// AwardPointsRequest adds points to a school's challenge progress
type AwardPointsRequest struct {
	SchoolID    string `json:"schoolId" binding:"required,uuid"`
	ChallengeID string `json:"challengeId" binding:"required,uuid"`
	Points      int    `json:"points" binding:"required"`
}
