package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/auth"
	"github.com/yigit/schoolyard/internal/pkg/logger"
)

// clientMessage prefers the message of a domain error over the generic text
func clientMessage(err error, fallback string) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	return fallback
}

// ErrorStatus maps an aggregator error to an HTTP status and error code
func ErrorStatus(err error) (int, dto.ErrorCode) {
	switch {
	case errors.Is(err, apperrors.ErrProfileNotFound):
		return http.StatusNotFound, dto.ErrorCodeProfileRequired
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, dto.ErrorCodeUnauthorized
	case apperrors.Is(err, apperrors.ErrTokenExpired, auth.ErrExpiredToken):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken
	case apperrors.Is(err, apperrors.ErrTokenInvalid, auth.ErrInvalidToken, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeBadRequest
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.ErrorCodeConflict
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer
	}
}

var defaultMessages = map[dto.ErrorCode]string{
	dto.ErrorCodeProfileRequired:       "Profile not found",
	dto.ErrorCodeResourceNotFound:      "Resource not found",
	dto.ErrorCodeForbidden:             "Permission denied",
	dto.ErrorCodeInvalidCredentials:    "Invalid credentials",
	dto.ErrorCodeUnauthorized:          "Authentication required",
	dto.ErrorCodeExpiredToken:          "Token expired",
	dto.ErrorCodeInvalidToken:          "Invalid token",
	dto.ErrorCodeValidationFailed:      "Validation failed",
	dto.ErrorCodeBadRequest:            "Bad request",
	dto.ErrorCodeResourceAlreadyExists: "Resource already exists",
	dto.ErrorCodeConflict:              "Conflict",
}

// HandleAPIError writes the error envelope for err
func HandleAPIError(c *gin.Context, err error) {
	status, code := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled API error")
		c.AbortWithStatusJSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, "Internal server error")))
		return
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, clientMessage(err, defaultMessages[code]))))
}

// Recovery turns panics into the internal error envelope
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
	})
}
