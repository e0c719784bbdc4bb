package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/auth"
)

// ViewerKey is the gin context key holding the *session.Viewer
const ViewerKey = "viewer"

// AuthMiddleware resolves bearer tokens into session viewers
type AuthMiddleware struct {
	jwtService *auth.JWTService
	identity   services.IdentityService
	logger     zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, identity services.IdentityService, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		identity:   identity,
		logger:     logger,
	}
}

// tokenFromRequest finds the token in the Authorization header or, for
// websocket upgrades that cannot set headers, the token query parameter.
func tokenFromRequest(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if queryToken := c.Query("token"); queryToken != "" {
			authHeader = queryToken
		} else if queryToken := c.Query("authorization"); queryToken != "" {
			authHeader = queryToken
		}
	}
	if authHeader == "" {
		return "", false
	}

	// Raw JWT without the Bearer prefix
	if strings.Count(authHeader, ".") == 2 && !strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader, true
	}

	tokenString, err := auth.ExtractBearerToken(strings.Trim(authHeader, "\"'"))
	if err != nil || strings.Count(tokenString, ".") != 2 {
		return "", true
	}
	return tokenString, true
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, message, details string) {
	errorDetail := dto.NewErrorDetail(code, message).WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// authenticate validates the token and stores the viewer. It reports false
// after aborting the request.
func (m *AuthMiddleware) authenticate(c *gin.Context, tokenString string) bool {
	if tokenString == "" {
		abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Invalid token format")
		return false
	}

	claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
	if err != nil {
		errorCode := dto.ErrorCodeInvalidToken
		errorDetails := "Invalid token"
		if errors.Is(err, auth.ErrExpiredToken) {
			errorCode = dto.ErrorCodeExpiredToken
			errorDetails = "Token has expired"
		}
		abortUnauthorized(c, errorCode, "Authentication failed", errorDetails)
		return false
	}

	viewer, err := m.identity.ResolveViewer(c.Request.Context(), claims)
	if err != nil && !errors.Is(err, apperrors.ErrProfileNotFound) {
		m.logger.Error().Err(err).Str("userID", claims.UserID).Msg("Failed to resolve viewer")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
		return false
	}

	setViewer(c, viewer)
	return true
}

func setViewer(c *gin.Context, viewer *session.Viewer) {
	c.Set(ViewerKey, viewer)
	c.Set("userID", viewer.UserID)
	c.Request = c.Request.WithContext(session.WithViewer(c.Request.Context(), viewer))
}

// JWTAuth rejects requests without a valid token. A user without a profile
// still passes; operations that need one fail with ErrProfileNotFound.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := tokenFromRequest(c)
		if !found {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Authorization header missing")
			return
		}
		if !m.authenticate(c, tokenString) {
			return
		}
		c.Next()
	}
}

// OptionalAuth treats requests without a token as guests. A token that is
// present must still be valid.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := tokenFromRequest(c)
		if !found {
			setViewer(c, session.Guest())
			c.Next()
			return
		}
		if !m.authenticate(c, tokenString) {
			return
		}
		c.Next()
	}
}

// CurrentViewer returns the viewer stored by JWTAuth or OptionalAuth, or a guest
func CurrentViewer(c *gin.Context) *session.Viewer {
	if v, ok := c.Get(ViewerKey); ok {
		if viewer, ok := v.(*session.Viewer); ok && viewer != nil {
			return viewer
		}
	}
	return session.FromContext(c.Request.Context())
}
