package integration

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ---------------------------------------------------------------------------
// POSSalesChannel
// ---------------------------------------------------------------------------

// POSSalesChannel links a local sales channel to its POS account.
// It is looked up explicitly by sales channel ID.
type POSSalesChannel struct {
	// ID is the identifier of the join record
	ID uuid.UUID
	// SalesChannelID is the local sales channel this record belongs to (one-to-one)
	SalesChannelID uuid.UUID `validate:"required"`
	// SalesChannelTypeID is the type of the local sales channel
	SalesChannelTypeID uuid.UUID `validate:"required"`
	// Name is a display name for logs and the API
	Name string `validate:"required,max=255"`
	// APIKey is the credential of the POS account
	APIKey string `validate:"required"`
	// ProductStreamID optionally restricts the synced products
	ProductStreamID *uuid.UUID
	// SyncPrices indicates whether prices are sent to the POS
	SyncPrices bool
	// ReplaceMode indicates whether the POS library is replaced instead of merged
	ReplaceMode bool
	// MediaDomain is the public domain used for product images
	MediaDomain string `validate:"omitempty,url"`
	// Enabled indicates whether the sales channel takes part in scheduled syncs
	Enabled bool
	// CreatedAt is the creation time
	CreatedAt time.Time
	// UpdatedAt is the last modification time
	UpdatedAt time.Time
}

// NewPOSSalesChannel creates a validated POS sales channel
func NewPOSSalesChannel(salesChannelID, salesChannelTypeID uuid.UUID, name, apiKey string) (*POSSalesChannel, error) {
	now := time.Now()
	ch := &POSSalesChannel{
		ID:                 uuid.New(),
		SalesChannelID:     salesChannelID,
		SalesChannelTypeID: salesChannelTypeID,
		Name:               strings.TrimSpace(name),
		APIKey:             strings.TrimSpace(apiKey),
		Enabled:            true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	return ch, nil
}

// Validate checks the record against its field rules
func (c *POSSalesChannel) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrSalesChannelInvalid, err)
	}
	return nil
}

// EnsurePOSType returns ErrUnexpectedSalesChannelType unless the sales channel
// is of the expected POS type
func (c *POSSalesChannel) EnsurePOSType(expectedTypeID uuid.UUID) error {
	if c.SalesChannelTypeID != expectedTypeID {
		return fmt.Errorf("%w: %q, check your type id settings", ErrUnexpectedSalesChannelType, c.SalesChannelTypeID.String())
	}
	return nil
}

// Disable excludes the sales channel from scheduled syncs
func (c *POSSalesChannel) Disable() {
	c.Enabled = false
	c.UpdatedAt = time.Now()
}

// Enable includes the sales channel in scheduled syncs
func (c *POSSalesChannel) Enable() {
	c.Enabled = true
	c.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// RunConfig
// ---------------------------------------------------------------------------

// SyncTrigger describes what started a sync run
type SyncTrigger string

const (
	// SyncTriggerManual is a run started through the API
	SyncTriggerManual SyncTrigger = "MANUAL"
	// SyncTriggerScheduled is a run started by the scheduler
	SyncTriggerScheduled SyncTrigger = "SCHEDULED"
)

// IsValid returns true if the trigger is valid
func (t SyncTrigger) IsValid() bool {
	return t == SyncTriggerManual || t == SyncTriggerScheduled
}

// RunConfig is the fixed configuration of one sync run, built once at run start
type RunConfig struct {
	// RunID identifies the sync run
	RunID uuid.UUID
	// SalesChannel is the POS sales channel under sync, carrying the credentials
	SalesChannel POSSalesChannel
	// Locations are the POS locations used for movements
	Locations Locations
	// Trigger is what started the run
	Trigger SyncTrigger
}

// NewRunConfig creates a run config after checking the locations
func NewRunConfig(runID uuid.UUID, salesChannel POSSalesChannel, locations Locations, trigger SyncTrigger) (RunConfig, error) {
	if err := locations.Validate(); err != nil {
		return RunConfig{}, err
	}
	return RunConfig{
		RunID:        runID,
		SalesChannel: salesChannel,
		Locations:    locations,
		Trigger:      trigger,
	}, nil
}
