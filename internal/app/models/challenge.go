package models

import "time"

// Challenge is a global competition schools accumulate points in
type Challenge struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	MaxPoints   int        `json:"maxPoints" db:"max_points"`
	StartDate   time.Time  `json:"startDate" db:"start_date"`
	EndDate     *time.Time `json:"endDate,omitempty" db:"end_date"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// SchoolChallenge is a school's progress in one challenge
type SchoolChallenge struct {
	ID            string    `json:"id" db:"id"`
	SchoolID      string    `json:"schoolId" db:"school_id"`
	ChallengeID   string    `json:"challengeId" db:"challenge_id"`
	CurrentPoints int       `json:"currentPoints" db:"current_points"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// SchoolChallengeEntry is a progress row joined with school name and challenge.
type SchoolChallengeEntry struct {
	SchoolChallenge
	SchoolName *string
	Challenge  *Challenge
}

// Rivalry is an unordered pair of schools
type Rivalry struct {
	ID        string    `json:"id" db:"id"`
	SchoolAID string    `json:"schoolAId" db:"school_a_id"`
	SchoolBID string    `json:"schoolBId" db:"school_b_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// RivalryEntry is a rivalry joined with both school names.
type RivalryEntry struct {
	Rivalry
	SchoolAName *string
	SchoolBName *string
}
