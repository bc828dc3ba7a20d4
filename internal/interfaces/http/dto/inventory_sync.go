package dto

import (
	"time"

	"github.com/paypos/backend/internal/domain/integration"
)

// ListSyncRunsRequest binds the query of the run list endpoint
type ListSyncRunsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// SyncFailureResponse is one product that could not be synced
type SyncFailureResponse struct {
	ItemID       string `json:"item_id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// SyncResultResponse is the outcome of a triggered run
type SyncResultResponse struct {
	RunID           string                `json:"run_id"`
	SalesChannelID  string                `json:"sales_channel_id"`
	Status          string                `json:"status"`
	TotalCount      int                   `json:"total_count"`
	PulledCount     int                   `json:"pulled_count"`
	PushedCount     int                   `json:"pushed_count"`
	TrackingStarted int                   `json:"tracking_started"`
	FailedCount     int                   `json:"failed_count"`
	FailedItems     []SyncFailureResponse `json:"failed_items"`
	SyncedAt        time.Time             `json:"synced_at"`
}

// SyncRunResponse is a persisted run log entry
type SyncRunResponse struct {
	ID              string                `json:"id"`
	SalesChannelID  string                `json:"sales_channel_id"`
	Status          string                `json:"status"`
	Trigger         string                `json:"trigger"`
	TotalCount      int                   `json:"total_count"`
	PulledCount     int                   `json:"pulled_count"`
	PushedCount     int                   `json:"pushed_count"`
	TrackingStarted int                   `json:"tracking_started"`
	FailedCount     int                   `json:"failed_count"`
	Failures        []SyncFailureResponse `json:"failures"`
	Error           string                `json:"error,omitempty"`
	StartedAt       time.Time             `json:"started_at"`
	FinishedAt      *time.Time            `json:"finished_at,omitempty"`
	DurationMs      int64                 `json:"duration_ms"`
}

// ToSyncResultResponse converts a sync result
func ToSyncResultResponse(r *integration.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		RunID:           r.RunID.String(),
		SalesChannelID:  r.SalesChannelID.String(),
		Status:          r.Status.String(),
		TotalCount:      r.TotalCount,
		PulledCount:     r.PulledCount,
		PushedCount:     r.PushedCount,
		TrackingStarted: r.TrackingStarted,
		FailedCount:     r.FailedCount,
		FailedItems:     toFailureResponses(r.FailedItems),
		SyncedAt:        r.SyncedAt,
	}
}

// ToSyncRunResponse converts a run log entry
func ToSyncRunResponse(run *integration.InventorySyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:              run.ID.String(),
		SalesChannelID:  run.SalesChannelID.String(),
		Status:          run.Status.String(),
		Trigger:         string(run.Trigger),
		TotalCount:      run.TotalCount,
		PulledCount:     run.PulledCount,
		PushedCount:     run.PushedCount,
		TrackingStarted: run.TrackingStarted,
		FailedCount:     run.FailedCount,
		Failures:        toFailureResponses(run.Failures),
		Error:           run.Error,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		DurationMs:      run.Duration().Milliseconds(),
	}
}

// ToSyncRunResponses converts a list of run log entries
func ToSyncRunResponses(runs []integration.InventorySyncRun) []SyncRunResponse {
	result := make([]SyncRunResponse, len(runs))
	for i := range runs {
		result[i] = ToSyncRunResponse(&runs[i])
	}
	return result
}

func toFailureResponses(failures []integration.SyncFailure) []SyncFailureResponse {
	result := make([]SyncFailureResponse, len(failures))
	for i, f := range failures {
		result[i] = SyncFailureResponse{
			ItemID:       f.ItemID,
			ErrorCode:    f.ErrorCode,
			ErrorMessage: f.ErrorMessage,
		}
	}
	return result
}
