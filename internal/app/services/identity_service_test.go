package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

func TestSignUpAndSignIn(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "North High")

	resp, err := f.svc.Identity.SignUp(f.ctx, &dto.RegisterRequest{
		Email:      "  Ada@Example.com ",
		Password:   "correct horse",
		Username:   "ada_l",
		SchoolID:   &school.ID,
		GradeLevel: strp("10"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "ada_l", resp.Profile.Username)
	assert.Equal(t, "ada@example.com", resp.Profile.Email)
	require.NotNil(t, resp.Profile.SchoolName)
	assert.Equal(t, "North High", *resp.Profile.SchoolName)
	assert.Empty(t, resp.Profile.Interests)

	claims, err := f.jwt.ValidateAndExtractClaims(resp.Token.AccessToken)
	require.NoError(t, err)
	viewer, err := f.svc.Identity.ResolveViewer(f.ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, viewer.ProfileID)
	assert.Equal(t, school.ID, viewer.School())

	_, err = f.svc.Identity.SignIn(f.ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.Identity.SignIn(f.ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	signedIn, err := f.svc.Identity.SignIn(f.ctx, &dto.LoginRequest{Email: "ADA@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, signedIn.Profile.ID)
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  dto.RegisterRequest
		want error
	}{
		{"bad email", dto.RegisterRequest{Email: "not-an-email", Password: "longenough", Username: "bob"}, apperrors.ErrValidationFailed},
		{"short password", dto.RegisterRequest{Email: "bob@example.com", Password: "short", Username: "bob"}, apperrors.ErrValidationFailed},
		{"bad username", dto.RegisterRequest{Email: "bob@example.com", Password: "longenough", Username: "b o b"}, apperrors.ErrValidationFailed},
		{"unknown school", dto.RegisterRequest{Email: "bob@example.com", Password: "longenough", Username: "bob", SchoolID: strp("00000000-0000-0000-0000-000000000000")}, apperrors.ErrResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Identity.SignUp(f.ctx, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.svc.Identity.SignUp(f.ctx, &dto.RegisterRequest{Email: "bob@example.com", Password: "longenough", Username: "bob"})
	require.NoError(t, err)
	_, err = f.svc.Identity.SignUp(f.ctx, &dto.RegisterRequest{Email: "bob@example.com", Password: "longenough", Username: "bobby"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = f.svc.Identity.SignUp(f.ctx, &dto.RegisterRequest{Email: "bobby@example.com", Password: "longenough", Username: "bob"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "South High")
	viewer := f.viewer(t, "carol", nil)

	resp, err := f.svc.Identity.UpdateProfile(f.ctx, viewer, &dto.UpdateProfileRequest{
		DisplayName: strp("Carol"),
		Bio:         strp("hi"),
		SchoolID:    &school.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Carol", *resp.DisplayName)
	assert.Equal(t, "hi", *resp.Bio)
	assert.Equal(t, school.ID, *resp.SchoolID)

	resp, err = f.svc.Identity.UpdateProfile(f.ctx, viewer, &dto.UpdateProfileRequest{Bio: strp("")})
	require.NoError(t, err)
	assert.Nil(t, resp.Bio)
	assert.Equal(t, "Carol", *resp.DisplayName)

	_, err = f.svc.Identity.UpdateProfile(f.ctx, viewer, &dto.UpdateProfileRequest{SchoolID: strp("missing")})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestProfileRequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Identity.GetProfile(f.ctx, session.Guest(), "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	noProfile := &session.Viewer{UserID: "u-1"}
	_, err = f.svc.Identity.UpdateProfile(f.ctx, noProfile, &dto.UpdateProfileRequest{})
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)

	viewer := f.viewer(t, "dave", nil)
	other := f.viewer(t, "erin", nil)
	resp, err := f.svc.Identity.GetProfile(f.ctx, viewer, other.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, "erin", resp.Username)
	assert.Empty(t, resp.Email)
}
