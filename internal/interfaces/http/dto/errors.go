package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Sales channel error codes
const (
	// ErrCodeSalesChannelNotFound is used when no POS sales channel has the requested ID
	ErrCodeSalesChannelNotFound = "ERR_SALES_CHANNEL_NOT_FOUND"
	// ErrCodeSalesChannelDisabled is used when the channel's integration is switched off
	ErrCodeSalesChannelDisabled = "ERR_SALES_CHANNEL_DISABLED"
	// ErrCodeSalesChannelType is used when the sales channel is not a POS channel
	ErrCodeSalesChannelType = "ERR_SALES_CHANNEL_TYPE"
	// ErrCodeSalesChannelInvalid is used when the channel record is incomplete
	ErrCodeSalesChannelInvalid = "ERR_SALES_CHANNEL_INVALID"
)

// Inventory sync error codes
const (
	// ErrCodeSyncAlreadyRunning is used when a run holds the channel's lock
	ErrCodeSyncAlreadyRunning = "ERR_SYNC_ALREADY_RUNNING"
	// ErrCodeSyncRunNotFound is used when the channel has no run yet
	ErrCodeSyncRunNotFound = "ERR_SYNC_RUN_NOT_FOUND"
	// ErrCodeSyncFailed is used when a run ended with a run-level error
	ErrCodeSyncFailed = "ERR_SYNC_FAILED"
)

// Platform error codes
const (
	// ErrCodePlatformNotConfigured is used when the POS API is not configured
	ErrCodePlatformNotConfigured = "ERR_PLATFORM_NOT_CONFIGURED"
	// ErrCodePlatformAuth is used when the POS API rejects the credentials
	ErrCodePlatformAuth = "ERR_PLATFORM_AUTH"
	// ErrCodePlatformUnavailable is used when the POS API cannot be reached
	ErrCodePlatformUnavailable = "ERR_PLATFORM_UNAVAILABLE"
	// ErrCodePlatformRateLimited is used when the POS API throttles requests
	ErrCodePlatformRateLimited = "ERR_PLATFORM_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Resource errors
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeConflict:             http.StatusConflict,
	ErrCodeSalesChannelNotFound: http.StatusNotFound,
	ErrCodeSyncRunNotFound:      http.StatusNotFound,
	ErrCodeSyncAlreadyRunning:   http.StatusConflict,

	// Sales channel state -> 422 Unprocessable Entity
	ErrCodeSalesChannelDisabled: http.StatusUnprocessableEntity,
	ErrCodeSalesChannelType:     http.StatusUnprocessableEntity,
	ErrCodeSalesChannelInvalid:  http.StatusUnprocessableEntity,

	// Upstream errors -> 502 Bad Gateway
	ErrCodeSyncFailed:            http.StatusBadGateway,
	ErrCodePlatformAuth:          http.StatusBadGateway,
	ErrCodePlatformUnavailable:   http.StatusBadGateway,
	ErrCodePlatformNotConfigured: http.StatusServiceUnavailable,
	ErrCodePlatformRateLimited:   http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps shared domain error codes to API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeConflict,
	"INVALID_INPUT":  ErrCodeInvalidInput,
	"INTERNAL_ERROR": ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
