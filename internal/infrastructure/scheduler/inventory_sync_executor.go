package scheduler

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/infrastructure/telemetry"
)

// InventorySyncExecutor executes inventory sync jobs
type InventorySyncExecutor interface {
	// Execute runs the sync of the job's sales channel and records the result on the job
	Execute(ctx context.Context, job *InventorySyncJob) error
}

// InventorySyncer runs one inventory sync of a sales channel
type InventorySyncer interface {
	SyncInventory(ctx context.Context, salesChannelID uuid.UUID, trigger integration.SyncTrigger) (*integration.SyncResult, error)
}

// ServiceExecutor executes jobs through the inventory sync service
type ServiceExecutor struct {
	syncer InventorySyncer
	logger *zap.Logger
}

// NewServiceExecutor creates a new executor
func NewServiceExecutor(syncer InventorySyncer, logger *zap.Logger) *ServiceExecutor {
	return &ServiceExecutor{
		syncer: syncer,
		logger: logger,
	}
}

// Execute runs the sync under sales channel profiling labels. A run that
// finished with per-product failures completes the job as PARTIAL or FAILED
// without returning an error.
func (e *ServiceExecutor) Execute(ctx context.Context, job *InventorySyncJob) error {
	var (
		result *integration.SyncResult
		err    error
	)
	labels := telemetry.SyncRunLabels(job.SalesChannelID.String(), string(job.Trigger))
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		result, err = e.syncer.SyncInventory(ctx, job.SalesChannelID, job.Trigger)
	})
	if result != nil {
		job.RunID = result.RunID
	}
	if err != nil {
		return err
	}

	job.Complete(result)
	e.logger.Debug("Inventory sync executed",
		zap.String("job_id", job.ID.String()),
		zap.String("sync_run_id", result.RunID.String()),
		zap.String("status", string(result.Status)),
	)
	return nil
}

// IsRetryable reports whether a failed job may succeed on a later attempt.
// Configuration problems of the channel and lock contention are not retried.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, integration.ErrSalesChannelNotFound),
		errors.Is(err, integration.ErrPlatformNotEnabled),
		errors.Is(err, integration.ErrPlatformNotConfigured),
		errors.Is(err, integration.ErrPlatformAuthFailed),
		errors.Is(err, integration.ErrUnexpectedSalesChannelType),
		errors.Is(err, integration.ErrSyncAlreadyRunning):
		return false
	default:
		return true
	}
}
