package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// CommunityController handles community and group membership
type CommunityController struct {
	memberships services.MembershipService
}

// NewCommunityController creates a new CommunityController
func NewCommunityController(memberships services.MembershipService) *CommunityController {
	return &CommunityController{memberships: memberships}
}

// ListCommunities handles retrieving the global communities
// @Summary List communities
// @Description Global communities by member count. isMember is false for guests.
// @Tags communities
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.CommunityView}
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /communities [get]
func (c *CommunityController) ListCommunities(ctx *gin.Context) {
	communities, err := c.memberships.ListCommunities(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, communities)
}

// JoinCommunity adds the caller to a community
// @Summary Join community
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CommunityView} "Refetched communities"
// @Failure 409 {object} dto.ErrorResponse "Already a member"
// @Router /communities/{id}/join [post]
func (c *CommunityController) JoinCommunity(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	communities, err := c.memberships.JoinCommunity(ctx.Request.Context(), viewerOf(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, communities)
}

// LeaveCommunity removes the caller from a community
// @Summary Leave community
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Community ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CommunityView} "Refetched communities"
// @Failure 404 {object} dto.ErrorResponse "Not a member"
// @Router /communities/{id}/leave [post]
func (c *CommunityController) LeaveCommunity(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	communities, err := c.memberships.LeaveCommunity(ctx.Request.Context(), viewerOf(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, communities)
}

// ListGroups lists the groups of a school, the caller's by default
func (c *CommunityController) ListGroups(ctx *gin.Context) {
	schoolID, valid := optionalSchoolID(ctx)
	if !valid {
		return
	}

	groups, err := c.memberships.ListGroups(ctx.Request.Context(), viewerOf(ctx), schoolID)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, groups)
}

// CreateGroup creates a group led by the caller
func (c *CommunityController) CreateGroup(ctx *gin.Context) {
	var req dto.CreateGroupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	groups, err := c.memberships.CreateGroup(ctx.Request.Context(), viewerOf(ctx), &req)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, groups)
}

// JoinGroup adds the caller to a group
func (c *CommunityController) JoinGroup(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	groups, err := c.memberships.JoinGroup(ctx.Request.Context(), viewerOf(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, groups)
}

// LeaveGroup removes the caller from a group
func (c *CommunityController) LeaveGroup(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	groups, err := c.memberships.LeaveGroup(ctx.Request.Context(), viewerOf(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, groups)
}
