package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/controllers"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/middleware"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
	"github.com/yigit/schoolyard/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrls *controllers.Controllers,
	authMiddleware *middleware.AuthMiddleware,
	wsHandler *websocket.Handler,
) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
	router.GET("/metrics", monitoring.PrometheusHandler())

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	// Guests may read; a present but invalid token is still rejected
	public := v1.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", ctrls.Auth.Register)
			auth.POST("/login", ctrls.Auth.Login)
		}

		public.GET("/schools", ctrls.Profile.ListSchools)
		public.GET("/profiles/:id", ctrls.Profile.GetProfile)

		public.GET("/posts", ctrls.Feed.ListPosts)
		public.GET("/posts/:id/comments", ctrls.Feed.ListComments)

		public.GET("/communities", ctrls.Community.ListCommunities)
		public.GET("/groups", ctrls.Community.ListGroups)

		challenges := public.Group("/challenges")
		{
			challenges.GET("", ctrls.Challenge.ListChallenges)
			challenges.GET("/progress", ctrls.Challenge.ListProgress)
			challenges.GET("/rivalries", ctrls.Challenge.ListRivalries)
			challenges.GET("/leaderboard", ctrls.Challenge.Leaderboard)
		}

		public.GET("/teachers", ctrls.Teacher.ListTeachers)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", ctrls.Auth.Me)
		authenticated.PUT("/profiles/me", ctrls.Profile.UpdateProfile)

		interests := authenticated.Group("/interests")
		{
			interests.GET("", ctrls.Interest.List)
			interests.POST("", ctrls.Interest.Add)
			interests.DELETE("/:tag", ctrls.Interest.Remove)
			interests.POST("/:tag/toggle", ctrls.Interest.Toggle)
		}

		friends := authenticated.Group("/friends")
		{
			friends.GET("", ctrls.Friend.ListFriends)
			friends.GET("/requests", ctrls.Friend.ListPendingRequests)
			friends.GET("/requests/sent", ctrls.Friend.ListSentRequests)
			friends.GET("/discover", ctrls.Friend.Discover)
			friends.POST("/requests", ctrls.Friend.SendRequest)
			friends.POST("/requests/:id/accept", ctrls.Friend.AcceptRequest)
			friends.POST("/requests/:id/reject", ctrls.Friend.RejectRequest)
			friends.DELETE("/:id", ctrls.Friend.RemoveFriend)
		}

		posts := authenticated.Group("/posts")
		{
			posts.POST("", ctrls.Feed.CreatePost)
			posts.POST("/images", ctrls.Feed.UploadImage)
			posts.POST("/:id/vote", ctrls.Feed.Vote)
			posts.POST("/:id/comments", ctrls.Feed.AddComment)
		}

		communities := authenticated.Group("/communities")
		{
			communities.POST("/:id/join", ctrls.Community.JoinCommunity)
			communities.POST("/:id/leave", ctrls.Community.LeaveCommunity)
		}

		groups := authenticated.Group("/groups")
		{
			groups.POST("", ctrls.Community.CreateGroup)
			groups.POST("/:id/join", ctrls.Community.JoinGroup)
			groups.POST("/:id/leave", ctrls.Community.LeaveGroup)
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", ctrls.Notification.List)
			notifications.GET("/unread-count", ctrls.Notification.UnreadCount)
			notifications.POST("/read-all", ctrls.Notification.MarkAllRead)
			notifications.POST("/:id/read", ctrls.Notification.MarkRead)
		}

		chats := authenticated.Group("/chats")
		{
			chats.GET("", ctrls.Chat.ListChats)
			chats.GET("/:id/messages", ctrls.Chat.GetChatMessages)
			chats.POST("/:id/messages", ctrls.Chat.SendTextMessage)
		}

		authenticated.POST("/teachers/:id/ratings", ctrls.Teacher.RateTeacher)
	}

	// WebSocket routes. Browsers pass the token as ?token=...
	ws := router.Group("/ws")
	ws.Use(authMiddleware.JWTAuth())
	{
		ws.GET("/notifications", wsHandler.HandleNotifications)
		ws.GET("/chats/:id", wsHandler.HandleChat)
	}
}
