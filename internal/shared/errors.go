package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Link and matching errors
	ErrUnrecognizedLinkFormat = fmt.Errorf("unrecognized link format")
	ErrPageFetch              = fmt.Errorf("page fetch failed")
	ErrMetadataNotFound       = fmt.Errorf("metadata not found")
	ErrSearch                 = fmt.Errorf("search failed")
	ErrPlaylistOperation      = fmt.Errorf("playlist operation failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Storage errors
	ErrRunNotFound = fmt.Errorf("run not found")
)
