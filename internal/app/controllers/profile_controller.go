package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// ProfileController serves profiles and the school directory
type ProfileController struct {
	identity services.IdentityService
}

// NewProfileController creates a new ProfileController
func NewProfileController(identity services.IdentityService) *ProfileController {
	return &ProfileController{identity: identity}
}

// GetProfile handles retrieving a profile by ID
// @Summary Get profile by ID
// @Tags profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid profile ID"
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Router /profiles/{id} [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	profile, err := c.identity.GetProfile(ctx.Request.Context(), viewerOf(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, profile)
}

// UpdateProfile handles updating the caller's profile
// @Summary Update own profile
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Router /profiles/me [put]
func (c *ProfileController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	profile, err := c.identity.UpdateProfile(ctx.Request.Context(), viewerOf(ctx), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, profile)
}

// ListSchools returns every school
func (c *ProfileController) ListSchools(ctx *gin.Context) {
	schools, err := c.identity.ListSchools(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, schools)
}
