package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/auth"
	"github.com/yigit/schoolyard/internal/pkg/validation"
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// IdentityService signs users up and in and resolves sessions to viewers
type IdentityService interface {
	SignUp(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	SignIn(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// ResolveViewer maps a validated token to the caller's profile. When the
	// user has no profile the returned viewer carries only the identity and
	// the error is apperrors.ErrProfileNotFound.
	ResolveViewer(ctx context.Context, claims *auth.Claims) (*session.Viewer, error)
	GetProfile(ctx context.Context, viewer *session.Viewer, profileID string) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, viewer *session.Viewer, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	ListSchools(ctx context.Context) ([]*models.School, error)
}

type identityServiceImpl struct {
	users      repositories.UserStore
	profiles   repositories.ProfileStore
	schools    repositories.SchoolStore
	interests  repositories.InterestStore
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(repos *repositories.Repositories, jwtService *auth.JWTService, logger zerolog.Logger) IdentityService {
	return &identityServiceImpl{
		users:      repos.Users,
		profiles:   repos.Profiles,
		schools:    repos.Schools,
		interests:  repos.Interests,
		jwtService: jwtService,
		logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *identityServiceImpl) validateSignUp(email, password, username string) error {
	if email == "" {
		return apperrors.NewValidationError("email is required")
	}
	if !emailRegex.MatchString(email) {
		return apperrors.NewValidationError("email format is invalid")
	}
	if len(password) < validation.PasswordMinLength {
		return apperrors.NewValidationError(fmt.Sprintf("password must be at least %d characters", validation.PasswordMinLength))
	}
	return validation.NewStringValidation("username", username).
		WithPattern(validation.CompiledPatterns.Username).
		Validate()
}

// SignUp creates the user and its profile in one write and returns a token
func (s *identityServiceImpl) SignUp(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	if err := s.validateSignUp(email, req.Password, username); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: hash}
	profile := &models.Profile{
		Username:   username,
		SchoolID:   emptyToNil(req.SchoolID),
		GradeLevel: emptyToNil(req.GradeLevel),
	}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		s.logger.Debug().Err(err).Str("email", email).Msg("Sign-up rejected")
		return nil, err
	}

	s.logger.Info().Str("userID", user.ID).Str("profileID", profile.ID).Msg("User registered")
	return s.authResponse(ctx, user, profile)
}

// SignIn checks the password and returns a token
func (s *identityServiceImpl) SignIn(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Debug().Str("userID", user.ID).Msg("Password mismatch")
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("userID", user.ID).Msg("Failed to update last login")
	}

	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, fmt.Errorf("error retrieving profile: %w", err)
	}
	return s.authResponse(ctx, user, profile)
}

func (s *identityServiceImpl) authResponse(ctx context.Context, user *models.User, profile *models.Profile) (*dto.AuthResponse, error) {
	token, err := s.jwtService.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", user.ID).Msg("Failed to generate token")
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	resp := &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token.Token,
			TokenType:   "Bearer",
			ExpiresIn:   token.ExpiresIn,
			ExpiresAt:   token.ExpiresAt,
		},
	}
	if profile != nil {
		resp.Profile, err = s.profileResponse(ctx, profile, user.Email)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// ResolveViewer builds the viewer for a validated token
func (s *identityServiceImpl) ResolveViewer(ctx context.Context, claims *auth.Claims) (*session.Viewer, error) {
	viewer := &session.Viewer{UserID: claims.UserID, Email: claims.Email}
	profile, err := s.profiles.GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return viewer, apperrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("error resolving profile: %w", err)
	}

	viewer.ProfileID = profile.ID
	viewer.Username = profile.Username
	viewer.SchoolID = profile.SchoolID
	viewer.GradeLevel = profile.GradeLevel
	viewer.Reputation = profile.ReputationPoints
	return viewer, nil
}

// GetProfile returns a profile by id, or the viewer's own when profileID is empty
func (s *identityServiceImpl) GetProfile(ctx context.Context, viewer *session.Viewer, profileID string) (*dto.ProfileResponse, error) {
	email := ""
	if profileID == "" || profileID == viewer.ProfileID {
		if err := viewer.RequireProfile(); err != nil {
			return nil, err
		}
		profileID = viewer.ProfileID
		email = viewer.Email
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.profileResponse(ctx, profile, email)
}

// UpdateProfile applies the non-nil fields of req. An empty string clears a field.
func (s *identityServiceImpl) UpdateProfile(ctx context.Context, viewer *session.Viewer, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, viewer.ProfileID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		profile.DisplayName = emptyToNil(req.DisplayName)
	}
	if req.Bio != nil {
		profile.Bio = emptyToNil(req.Bio)
	}
	if req.GradeLevel != nil {
		profile.GradeLevel = emptyToNil(req.GradeLevel)
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = emptyToNil(req.AvatarURL)
	}
	if req.SchoolID != nil {
		profile.SchoolID = emptyToNil(req.SchoolID)
		if profile.SchoolID != nil {
			if _, err := s.schools.GetByID(ctx, *profile.SchoolID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		s.logger.Error().Err(err).Str("profileID", profile.ID).Msg("Failed to update profile")
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	s.logger.Debug().Str("profileID", profile.ID).Msg("Profile updated")
	return s.profileResponse(ctx, profile, viewer.Email)
}

// ListSchools returns every school by name
func (s *identityServiceImpl) ListSchools(ctx context.Context) ([]*models.School, error) {
	schools, err := s.schools.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing schools: %w", err)
	}
	return schools, nil
}

func (s *identityServiceImpl) profileResponse(ctx context.Context, profile *models.Profile, email string) (*dto.ProfileResponse, error) {
	tags, err := s.interests.ListByProfile(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving interests: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}

	resp := &dto.ProfileResponse{
		ProfileSummary: dto.NewProfileSummary(profile),
		UserID:         profile.UserID,
		Email:          email,
		Bio:            profile.Bio,
		Interests:      tags,
		CreatedAt:      profile.CreatedAt,
	}
	if profile.SchoolID != nil {
		school, err := s.schools.GetByID(ctx, *profile.SchoolID)
		if err == nil {
			resp.SchoolName = &school.Name
		} else if !errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, fmt.Errorf("error retrieving school: %w", err)
		}
	}
	return resp, nil
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
