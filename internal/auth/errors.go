package auth

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrNotFound          = errors.New("user not found")
	ErrBadPassword       = errors.New("incorrect password")
	ErrUnknownUser       = errors.New("unknown user")
	ErrSendFailure       = errors.New("failed to send otp")
	ErrInvalidOTP        = errors.New("invalid or expired otp")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)
