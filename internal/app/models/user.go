package models

import (
	"time"
)

// User is the authentication identity, separate from the social profile.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

// Profile is the application-level identity every aggregator resolves the session to.
type Profile struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"userId" db:"user_id"`
	Username         string    `json:"username" db:"username"`
	DisplayName      *string   `json:"displayName,omitempty" db:"display_name"`
	SchoolID         *string   `json:"schoolId,omitempty" db:"school_id"`
	GradeLevel       *string   `json:"gradeLevel,omitempty" db:"grade_level"`
	ReputationPoints int       `json:"reputationPoints" db:"reputation_points"`
	AvatarURL        *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	Bio              *string   `json:"bio,omitempty" db:"bio"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// School is a participating school
type School struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Domain          *string   `json:"domain,omitempty" db:"domain"`
	LocationCity    *string   `json:"locationCity,omitempty" db:"location_city"`
	LocationCountry *string   `json:"locationCountry,omitempty" db:"location_country"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// Interest is one tag on a profile
type Interest struct {
	ProfileID   string `json:"profileId" db:"profile_id"`
	InterestTag string `json:"interestTag" db:"interest_tag"`
}
