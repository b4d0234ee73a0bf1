package apperrors

import (
	"errors"
)

var (
	// Returned before any storage access when an identifier can't be parsed
	ErrInvalidID = errors.New("identifier is malformed")

	// Coarse authentication failures
	// Unknown principal and wrong credential map to the same error on purpose:
	// the caller must not be able to enumerate clients or users
	ErrClientAuthFailed = errors.New("client authentication failed")
	ErrUserAuthFailed   = errors.New("user authentication failed")

	ErrClientNotFound = errors.New("client not found")
	ErrClientExists   = errors.New("client already exists")

	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExists   = errors.New("token already exists")
)
