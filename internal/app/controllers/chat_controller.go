package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// ChatController handles group chat operations
type ChatController struct {
	chats services.ChatService
}

// NewChatController creates a new ChatController
func NewChatController(chats services.ChatService) *ChatController {
	return &ChatController{chats: chats}
}

// ListChats handles listing the chats visible to the caller
// @Summary List chats
// @Description Chats of the caller's school open to the caller's grade
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ChatView}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Router /chats [get]
func (c *ChatController) ListChats(ctx *gin.Context) {
	chats, err := c.chats.ListChats(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, chats)
}

// GetChatMessages handles retrieving a chat's recent history
// @Summary Get chat messages
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.MessageView} "Oldest first"
// @Failure 403 {object} dto.ErrorResponse "Chat belongs to another school or grade"
// @Failure 404 {object} dto.ErrorResponse "Chat not found"
// @Router /chats/{id}/messages [get]
func (c *ChatController) GetChatMessages(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	messages, err := c.chats.ListMessages(ctx.Request.Context(), viewerOf(ctx), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, messages)
}

// SendTextMessage handles posting a message
// @Summary Send message
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.MessageView}
// @Failure 400 {object} dto.ErrorResponse "Empty message"
// @Router /chats/{id}/messages [post]
func (c *ChatController) SendTextMessage(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.SendMessageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	message, err := c.chats.SendMessage(ctx.Request.Context(), viewerOf(ctx), id, req.Content)
	if err != nil {
		fail(ctx, err)
		return
	}
	created(ctx, message)
}
