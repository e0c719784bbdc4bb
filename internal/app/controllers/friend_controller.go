package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// FriendController handles the social graph
type FriendController struct {
	friends services.FriendService
}

// NewFriendController creates a new FriendController
func NewFriendController(friends services.FriendService) *FriendController {
	return &FriendController{friends: friends}
}

// ListFriends returns the caller's friends
// @Summary List friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.Friend}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /friends [get]
func (c *FriendController) ListFriends(ctx *gin.Context) {
	friends, err := c.friends.ListFriends(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, friends)
}

// ListPendingRequests returns pending requests addressed to the caller
// @Summary Incoming friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.FriendRequestView}
// @Router /friends/requests [get]
func (c *FriendController) ListPendingRequests(ctx *gin.Context) {
	requests, err := c.friends.ListPendingRequests(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, requests)
}

// ListSentRequests returns the caller's pending outgoing requests
// @Summary Outgoing friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.FriendRequestView}
// @Router /friends/requests/sent [get]
func (c *FriendController) ListSentRequests(ctx *gin.Context) {
	requests, err := c.friends.ListSentRequests(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, requests)
}

// Discover ranks schoolmates the caller may know
// @Summary Discover schoolmates
// @Description Ranked by shared interests, then reputation
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.DiscoverableUser}
// @Router /friends/discover [get]
func (c *FriendController) Discover(ctx *gin.Context) {
	users, err := c.friends.Discover(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, users)
}

// SendRequest sends a friend request
// @Summary Send friend request
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendFriendRequest true "Receiver"
// @Success 201 {object} dto.APIResponse{data=dto.FriendRequestView}
// @Failure 409 {object} dto.ErrorResponse "A pending request already exists"
// @Router /friends/requests [post]
func (c *FriendController) SendRequest(ctx *gin.Context) {
	var req dto.SendFriendRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	view, err := c.friends.SendRequest(ctx.Request.Context(), viewerOf(ctx), req.ReceiverID)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, view)
}

// AcceptRequest accepts a request addressed to the caller
// @Summary Accept friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} dto.APIResponse{data=models.Friendship}
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Router /friends/requests/{id}/accept [post]
func (c *FriendController) AcceptRequest(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	friendship, err := c.friends.AcceptRequest(ctx.Request.Context(), viewerOf(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, friendship)
}

// RejectRequest rejects a request addressed to the caller
func (c *FriendController) RejectRequest(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	if err := c.friends.RejectRequest(ctx.Request.Context(), viewerOf(ctx), id); err != nil {
		fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// RemoveFriend ends a friendship
func (c *FriendController) RemoveFriend(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	if err := c.friends.RemoveFriend(ctx.Request.Context(), viewerOf(ctx), id); err != nil {
		fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
