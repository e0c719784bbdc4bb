package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// InterestController manages the caller's interest tags
type InterestController struct {
	interests services.InterestService
}

// NewInterestController creates a new InterestController
func NewInterestController(interests services.InterestService) *InterestController {
	return &InterestController{interests: interests}
}

func (c *InterestController) respond(ctx *gin.Context, tags []string, err error) {
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, dto.InterestsResponse{Interests: tags, Catalogue: services.InterestCatalogue})
}

// List returns the caller's tags with the catalogue
// @Summary List interests
// @Tags interests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.InterestsResponse}
// @Router /interests [get]
func (c *InterestController) List(ctx *gin.Context) {
	tags, err := c.interests.List(ctx.Request.Context(), viewerOf(ctx))
	c.respond(ctx, tags, err)
}

// Add adds a catalogue tag
func (c *InterestController) Add(ctx *gin.Context) {
	var req dto.InterestRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	tags, err := c.interests.Add(ctx.Request.Context(), viewerOf(ctx), req.Tag)
	c.respond(ctx, tags, err)
}

// Remove drops the tag named in the path
func (c *InterestController) Remove(ctx *gin.Context) {
	tags, err := c.interests.Remove(ctx.Request.Context(), viewerOf(ctx), ctx.Param("tag"))
	c.respond(ctx, tags, err)
}

// Toggle adds the tag when absent and removes it when present
func (c *InterestController) Toggle(ctx *gin.Context) {
	tags, err := c.interests.Toggle(ctx.Request.Context(), viewerOf(ctx), ctx.Param("tag"))
	c.respond(ctx, tags, err)
}
