// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
)

// Controllers groups the HTTP handlers registered by routes.SetupRouter
type Controllers struct {
	Auth         *AuthController
	Profile      *ProfileController
	Interest     *InterestController
	Friend       *FriendController
	Feed         *FeedController
	Community    *CommunityController
	Challenge    *ChallengeController
	Notification *NotificationController
	Chat         *ChatController
	Teacher      *TeacherController
}

// New builds every controller over svc
func New(svc *services.Services, logger zerolog.Logger) *Controllers {
	return &Controllers{
		Auth:         NewAuthController(svc.Identity, logger.With().Str("controller", "auth").Logger()),
		Profile:      NewProfileController(svc.Identity),
		Interest:     NewInterestController(svc.Interests),
		Friend:       NewFriendController(svc.Friends),
		Feed:         NewFeedController(svc.Feed),
		Community:    NewCommunityController(svc.Memberships),
		Challenge:    NewChallengeController(svc.Challenges),
		Notification: NewNotificationController(svc.Notifications),
		Chat:         NewChatController(svc.Chats),
		Teacher:      NewTeacherController(svc.Ratings),
	}
}

// pathID reads a uuid path parameter. On failure it writes a 400 and returns false.
func pathID(ctx *gin.Context, name string) (string, bool) {
	raw := ctx.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid "+name).WithField(name)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return "", false
	}
	return id.String(), true
}

// optionalSchoolID reads the schoolId query parameter, which must be a uuid when present
func optionalSchoolID(ctx *gin.Context) (string, bool) {
	raw := ctx.Query("schoolId")
	if raw == "" {
		return "", true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid schoolId").WithField("schoolId")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return "", false
	}
	return id.String(), true
}

func ok(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

var (
	viewerOf = middleware.CurrentViewer
	fail     = middleware.HandleAPIError
)
