package dto

import (
	"time"

	"github.com/yigit/schoolyard/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64     `json:"expiresIn"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// RegisterRequest creates an identity and its profile
type RegisterRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=8,max=72"`
	Username   string  `json:"username" binding:"required,username"`
	SchoolID   *string `json:"schoolId" binding:"omitempty,uuid"`
	GradeLevel *string `json:"gradeLevel" binding:"omitempty,max=20"`
}

// UpdateProfileRequest carries the editable profile fields. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,max=100"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
	GradeLevel  *string `json:"gradeLevel" binding:"omitempty,max=20"`
	AvatarURL   *string `json:"avatarUrl" binding:"omitempty,url"`
	SchoolID    *string `json:"schoolId" binding:"omitempty,uuid"`
}

// ProfileSummary is the compact profile embedded in friend and request listings
type ProfileSummary struct {
	ID               string  `json:"id"`
	Username         string  `json:"username"`
	DisplayName      *string `json:"displayName,omitempty"`
	AvatarURL        *string `json:"avatarUrl,omitempty"`
	SchoolID         *string `json:"schoolId,omitempty"`
	GradeLevel       *string `json:"gradeLevel,omitempty"`
	ReputationPoints int     `json:"reputationPoints"`
}

// NewProfileSummary builds a ProfileSummary from a profile row
func NewProfileSummary(p *models.Profile) ProfileSummary {
	return ProfileSummary{
		ID:               p.ID,
		Username:         p.Username,
		DisplayName:      p.DisplayName,
		AvatarURL:        p.AvatarURL,
		SchoolID:         p.SchoolID,
		GradeLevel:       p.GradeLevel,
		ReputationPoints: p.ReputationPoints,
	}
}

// ProfileResponse is the full profile of the current user
type ProfileResponse struct {
	ProfileSummary
	UserID     string    `json:"userId"`
	Email      string    `json:"email,omitempty"`
	Bio        *string   `json:"bio,omitempty"`
	SchoolName *string   `json:"schoolName,omitempty"`
	Interests  []string  `json:"interests"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token   TokenResponse    `json:"token"`
	Profile *ProfileResponse `json:"profile,omitempty"`
}
