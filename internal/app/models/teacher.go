package models

import "time"

// Teacher can be rated by students of any school
type Teacher struct {
	ID        string    `json:"id" db:"id"`
	SchoolID  string    `json:"schoolId" db:"school_id"`
	Name      string    `json:"name" db:"name"`
	Subject   *string   `json:"subject,omitempty" db:"subject"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Rating is unique per (TargetType, TargetID, RaterID)
type Rating struct {
	ID         string    `json:"id" db:"id"`
	TargetType string    `json:"targetType" db:"target_type"`
	TargetID   string    `json:"targetId" db:"target_id"`
	RaterID    string    `json:"raterId" db:"rater_id"`
	Score      int       `json:"score" db:"score"`
	Comment    *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// RatingStats aggregates the ratings of one target.
type RatingStats struct {
	Sum   int
	Count int
}
