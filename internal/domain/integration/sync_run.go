package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncStatus represents the synchronization status
// ---------------------------------------------------------------------------

// SyncStatus represents the synchronization status
type SyncStatus string

const (
	// SyncStatusPending indicates sync is pending
	SyncStatusPending SyncStatus = "PENDING"
	// SyncStatusInProgress indicates sync is in progress
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
	// SyncStatusSuccess indicates sync was successful
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates partial sync success
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates sync failed
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusInProgress, SyncStatusSuccess, SyncStatusPartial, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// IsFinal returns true if the run has ended
func (s SyncStatus) IsFinal() bool {
	return s == SyncStatusSuccess || s == SyncStatusPartial || s == SyncStatusFailed
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Sync results
// ---------------------------------------------------------------------------

// SyncFailure records why one product could not be synced
type SyncFailure struct {
	// ItemID is the local product identifier
	ItemID string `json:"item_id"`
	// ErrorCode is a short machine readable code
	ErrorCode string `json:"error_code"`
	// ErrorMessage is the error text
	ErrorMessage string `json:"error_message"`
}

// Failure codes recorded per product
const (
	FailureCodeTrackingStart = "TRACKING_START_FAILED"
	FailureCodeStockUpdate   = "STOCK_UPDATE_FAILED"
	FailureCodeChange        = "INVENTORY_CHANGE_FAILED"
)

// SyncResult is the outcome of one inventory sync run
type SyncResult struct {
	RunID           uuid.UUID     `json:"run_id"`
	SalesChannelID  uuid.UUID     `json:"sales_channel_id"`
	Status          SyncStatus    `json:"status"`
	TotalCount      int           `json:"total_count"`
	PulledCount     int           `json:"pulled_count"`
	PushedCount     int           `json:"pushed_count"`
	TrackingStarted int           `json:"tracking_started"`
	FailedCount     int           `json:"failed_count"`
	FailedItems     []SyncFailure `json:"failed_items,omitempty"`
	SyncedAt        time.Time     `json:"synced_at"`
}

// ---------------------------------------------------------------------------
// InventorySyncRun
// ---------------------------------------------------------------------------

// InventorySyncRun is the persisted log of one sync run
type InventorySyncRun struct {
	ID              uuid.UUID
	SalesChannelID  uuid.UUID
	Status          SyncStatus
	Trigger         SyncTrigger
	TotalCount      int
	PulledCount     int
	PushedCount     int
	TrackingStarted int
	FailedCount     int
	Failures        []SyncFailure
	Error           string
	StartedAt       time.Time
	FinishedAt      *time.Time
}

// NewInventorySyncRun creates a run in progress
func NewInventorySyncRun(salesChannelID uuid.UUID, trigger SyncTrigger) *InventorySyncRun {
	return &InventorySyncRun{
		ID:             uuid.New(),
		SalesChannelID: salesChannelID,
		Status:         SyncStatusInProgress,
		Trigger:        trigger,
		StartedAt:      time.Now(),
	}
}

// RecordFailure adds a per-product failure
func (r *InventorySyncRun) RecordFailure(productID uuid.UUID, code string, err error) {
	r.Failures = append(r.Failures, SyncFailure{
		ItemID:       productID.String(),
		ErrorCode:    code,
		ErrorMessage: err.Error(),
	})
	r.FailedCount = len(r.Failures)
}

// Complete ends the run and derives its status from the counts
func (r *InventorySyncRun) Complete() {
	now := time.Now()
	r.FinishedAt = &now
	r.FailedCount = len(r.Failures)

	switch {
	case r.FailedCount == 0:
		r.Status = SyncStatusSuccess
	case r.FailedCount < r.TotalCount:
		r.Status = SyncStatusPartial
	default:
		r.Status = SyncStatusFailed
	}
}

// Fail ends the run with a run-level error
func (r *InventorySyncRun) Fail(err error) {
	now := time.Now()
	r.FinishedAt = &now
	r.Status = SyncStatusFailed
	r.Error = err.Error()
}

// Duration returns how long the run took, or zero while it is running
func (r *InventorySyncRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Result returns the run as a SyncResult
func (r *InventorySyncRun) Result() *SyncResult {
	syncedAt := r.StartedAt
	if r.FinishedAt != nil {
		syncedAt = *r.FinishedAt
	}
	return &SyncResult{
		RunID:           r.ID,
		SalesChannelID:  r.SalesChannelID,
		Status:          r.Status,
		TotalCount:      r.TotalCount,
		PulledCount:     r.PulledCount,
		PushedCount:     r.PushedCount,
		TrackingStarted: r.TrackingStarted,
		FailedCount:     r.FailedCount,
		FailedItems:     r.Failures,
		SyncedAt:        syncedAt,
	}
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// InventorySyncedEvent is published after a sync run has finished
type InventorySyncedEvent struct {
	RunID          uuid.UUID  `json:"run_id"`
	SalesChannelID uuid.UUID  `json:"sales_channel_id"`
	Status         SyncStatus `json:"status"`
	PulledCount    int        `json:"pulled_count"`
	PushedCount    int        `json:"pushed_count"`
	FailedCount    int        `json:"failed_count"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// NewInventorySyncedEvent builds the event for a finished run
func NewInventorySyncedEvent(run *InventorySyncRun) InventorySyncedEvent {
	occurredAt := time.Now()
	if run.FinishedAt != nil {
		occurredAt = *run.FinishedAt
	}
	return InventorySyncedEvent{
		RunID:          run.ID,
		SalesChannelID: run.SalesChannelID,
		Status:         run.Status,
		PulledCount:    run.PulledCount,
		PushedCount:    run.PushedCount,
		FailedCount:    run.FailedCount,
		OccurredAt:     occurredAt,
	}
}
