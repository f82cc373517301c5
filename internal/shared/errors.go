package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication and session errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrAuthExpired        = fmt.Errorf("authentication expired")
	ErrNoRefreshToken     = fmt.Errorf("no refresh token available")
	ErrRefreshFailed      = fmt.Errorf("token refresh failed")
	ErrMalformedResponse  = fmt.Errorf("malformed server response")

	// API and transport errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrBodyNotReplayable  = fmt.Errorf("request body cannot be replayed")

	// Session store errors
	ErrStoreClosed = fmt.Errorf("session store closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
