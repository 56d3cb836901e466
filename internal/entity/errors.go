package entity

import "errors"

// Domain errors
var (
	// Pipeline errors
	ErrEmptyGeneration   = errors.New("model returned an empty generation")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrNoMatches         = errors.New("vector search returned no matches")
	ErrUnsafeQuery       = errors.New("generated query rejected")

	// Index errors
	ErrIndexNotAcknowledged = errors.New("index operation not acknowledged")
	ErrIndexNotFound        = errors.New("index not found")
	ErrIndexExists          = errors.New("index already exists")
	ErrSampleNotFound       = errors.New("sample not found")

	// Auth errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionExpired     = errors.New("session expired")

	// Validation errors
	ErrMissingField       = errors.New("required field is missing")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrMessageTooLong     = errors.New("message too long")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrUnsupportedBackend = errors.New("unsupported backend")
)

// GenericChatError is the only failure text a chat user ever sees.
const GenericChatError = "An error occurred while processing your request."
