package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/paypos/backend/internal/domain/integration"
)

// maxRetryDelay caps the exponential backoff between retries
const maxRetryDelay = 30 * time.Minute

// JobStatus represents the status of an inventory sync job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusPartial JobStatus = "PARTIAL"
	JobStatusFailed  JobStatus = "FAILED"
)

// InventorySyncJob is one scheduled inventory sync of a POS sales channel
type InventorySyncJob struct {
	ID             uuid.UUID
	SalesChannelID uuid.UUID
	Trigger        integration.SyncTrigger
	Status         JobStatus
	Error          string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	RetryCount     int
	MaxRetries     int
	NextRetryAt    *time.Time

	// Result of the last attempt
	RunID       uuid.UUID
	PulledCount int
	PushedCount int
	FailedCount int
}

// NewInventorySyncJob creates a new inventory sync job
func NewInventorySyncJob(salesChannelID uuid.UUID, trigger integration.SyncTrigger, maxRetries int) *InventorySyncJob {
	return &InventorySyncJob{
		ID:             uuid.New(),
		SalesChannelID: salesChannelID,
		Trigger:        trigger,
		Status:         JobStatusPending,
		MaxRetries:     maxRetries,
	}
}

// Start marks the job as running
func (j *InventorySyncJob) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the sync result and derives the job status from it
func (j *InventorySyncJob) Complete(result *integration.SyncResult) {
	now := time.Now()
	j.CompletedAt = &now
	j.RunID = result.RunID
	j.PulledCount = result.PulledCount
	j.PushedCount = result.PushedCount
	j.FailedCount = result.FailedCount

	switch result.Status {
	case integration.SyncStatusSuccess:
		j.Status = JobStatusSuccess
	case integration.SyncStatusPartial:
		j.Status = JobStatusPartial
	default:
		j.Status = JobStatusFailed
	}
}

// Fail marks the job as failed
func (j *InventorySyncJob) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *InventorySyncJob) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
// and returns the delay until the next attempt
func (j *InventorySyncJob) ScheduleRetry(baseDelay time.Duration) time.Duration {
	j.RetryCount++
	j.Status = JobStatusPending
	// baseDelay * 2^(retryCount-1)
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
	return delay
}

// IsFinished returns true if the job will not run again
func (j *InventorySyncJob) IsFinished() bool {
	switch j.Status {
	case JobStatusSuccess, JobStatusPartial:
		return true
	case JobStatusFailed:
		return !j.ShouldRetry()
	default:
		return false
	}
}
