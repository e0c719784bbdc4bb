package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/pkg/validation"
)

var registerOnce sync.Once

// RegisterValidators adds the custom tags to gin's validator engine
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected validator engine")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		err = validation.RegisterCustomValidations(v)
	})
	return err
}

// BindJSON binds and validates the request body into obj. On failure it
// writes the error envelope and reports false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	return bindWith(c, c.ShouldBindJSON(obj))
}

// BindQuery binds and validates the query string into obj
func BindQuery(c *gin.Context, obj interface{}) bool {
	return bindWith(c, c.ShouldBindQuery(obj))
}

func bindWith(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		details := &dto.FieldErrors{}
		for _, fe := range fieldErrors {
			details.Add(fe.Field(), formatValidationError(fe))
		}
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, details.Errors[0].Message).
			WithField(details.Errors[0].Field).
			WithDetails(details)
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return false
	}

	errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid request format").WithDetails(err.Error())
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
	return false
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "uuid":
		return e.Field() + " must be a valid id"
	case "url":
		return e.Field() + " must be a valid URL"
	case "username":
		return e.Field() + " must be 3-30 letters, digits or underscores"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
