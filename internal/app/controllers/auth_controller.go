package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	identity services.IdentityService
	logger   zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(identity services.IdentityService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		identity: identity,
		logger:   logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Creates the auth identity and its profile and returns an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration information"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "User registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 409 {object} dto.ErrorResponse "Email or username already taken"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		c.logger.Debug().Msg("Invalid registration request payload")
		return
	}

	resp, err := c.identity.SignUp(ctx.Request.Context(), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, resp)
}

// Login handles user login
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.identity.SignIn(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Debug().Err(err).Str("email", req.Email).Msg("Login failed")
		fail(ctx, err)
		return
	}
	ok(ctx, resp)
}

// Me returns the caller's own profile
// @Summary Current profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	profile, err := c.identity.GetProfile(ctx.Request.Context(), viewerOf(ctx), "")
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, profile)
}
