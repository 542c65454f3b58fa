package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAppRegistration  = fmt.Errorf("app registration failed")

	// API and service errors
	ErrAPIRequest     = fmt.Errorf("API request failed")
	ErrStatusNotFound = fmt.Errorf("status not found")

	// Storage errors
	ErrNotFound      = fmt.Errorf("record not found")
	ErrDataIntegrity = fmt.Errorf("data integrity violation")

	// Input validation errors
	ErrInvalidInstance = fmt.Errorf("invalid instance URL")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
