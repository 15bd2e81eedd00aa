package domain

import "errors"

// Domain errors
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidPattern  = errors.New("invalid filter pattern")
	ErrDisposed        = errors.New("log source disposed")
	ErrSourceNotFound  = errors.New("log source not found")
	ErrConfigNotFound  = errors.New("config file not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// Error codes for API responses
const (
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeInvalidPattern  = "INVALID_PATTERN"
	ErrCodeSourceNotFound  = "SOURCE_NOT_FOUND"

	// Streaming-related error code (API-only, no sentinel error as it is
	// only used for HTTP response formatting in the API layer)
	ErrCodeStreamingNotSupported = "STREAMING_NOT_SUPPORTED"
)

// ErrorCode returns the API error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return ErrCodeInvalidArgument
	case errors.Is(err, ErrInvalidPattern):
		return ErrCodeInvalidPattern
	case errors.Is(err, ErrSourceNotFound):
		return ErrCodeSourceNotFound
	default:
		return "INTERNAL_ERROR"
	}
}
