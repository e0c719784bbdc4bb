package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidFormat      = errors.New("invalid token format")
	ErrUnauthenticated    = errors.New("not authenticated")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Domain errors wrap the generic sentinels above, so callers can match either
// the specific error or its category.
var (
	ErrUserNotFound       = &CustomError{Err: ErrResourceNotFound, Message: "user not found"}
	ErrProfileNotFound    = &CustomError{Err: ErrResourceNotFound, Message: "profile not found"}
	ErrEmailAlreadyExists = &CustomError{Err: ErrConflict, Message: "email already exists"}
	ErrUsernameTaken      = &CustomError{Err: ErrConflict, Message: "username already taken"}

	ErrRequestNotFound   = &CustomError{Err: ErrResourceNotFound, Message: "friend request not found"}
	ErrRequestExists     = &CustomError{Err: ErrConflict, Message: "a pending request already exists between these profiles"}
	ErrSelfRequest       = &CustomError{Err: ErrValidationFailed, Message: "cannot send a friend request to yourself"}
	ErrFriendshipMissing = &CustomError{Err: ErrResourceNotFound, Message: "friendship not found"}

	ErrAlreadyMember = &CustomError{Err: ErrConflict, Message: "already a member"}
	ErrNotMember     = &CustomError{Err: ErrResourceNotFound, Message: "not a member"}
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError creates a validation failure carrying a user facing message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// Message returns the string surfaced to clients for err, or "" for nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// CustomError carries a client-facing message over one of the sentinels above
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}
