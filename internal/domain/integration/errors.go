package integration

import "errors"

// ---------------------------------------------------------------------------
// POS Integration Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformNotEnabled      = errors.New("integration: platform not enabled")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")

	// Identifier errors
	ErrInvalidIdentifier = errors.New("integration: invalid identifier")

	// Sales channel errors
	ErrUnexpectedSalesChannelType = errors.New("integration: unexpected sales channel type")
	ErrSalesChannelInvalid        = errors.New("integration: invalid POS sales channel")
	ErrSalesChannelNotFound       = errors.New("integration: POS sales channel not found")

	// Inventory sync errors
	ErrInventorySyncFailed  = errors.New("integration: inventory sync failed")
	ErrTrackingStartFailed  = errors.New("integration: start tracking failed")
	ErrLocationsIncomplete  = errors.New("integration: POS inventory locations incomplete")
	ErrSyncAlreadyRunning   = errors.New("integration: inventory sync already running for sales channel")
	ErrSyncRunNotFound      = errors.New("integration: inventory sync run not found")
	ErrSnapshotNotSaved     = errors.New("integration: inventory snapshot not saved")
)
