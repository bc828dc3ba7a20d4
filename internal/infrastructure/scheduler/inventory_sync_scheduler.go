package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paypos/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds configuration for the inventory sync scheduler
type Config struct {
	// MaxConcurrentJobs is the number of workers; runs of different channels execute in parallel
	MaxConcurrentJobs int
	// JobTimeout is the maximum time one sync run can take
	JobTimeout time.Duration
	// RetryAttempts is the number of retries for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// QueueSize is the capacity of the job queue
	QueueSize int
	// MaxHistory is the number of finished jobs kept for monitoring
	MaxHistory int
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 3,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
		QueueSize:         100,
		MaxHistory:        100,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts > 0 && c.RetryDelay <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 || c.MaxHistory < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// InventorySyncScheduler
// ---------------------------------------------------------------------------

// InventorySyncScheduler runs inventory sync jobs on a worker pool.
// A sales channel has at most one pending or running job.
type InventorySyncScheduler struct {
	config   Config
	executor InventorySyncExecutor
	logger   *zap.Logger

	jobs      chan *InventorySyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	queued    map[uuid.UUID]uuid.UUID // sales channel -> job
	retries   map[uuid.UUID]*time.Timer

	historyMu sync.RWMutex
	history   []*InventorySyncJob
}

// NewInventorySyncScheduler creates a new inventory sync scheduler
func NewInventorySyncScheduler(config Config, executor InventorySyncExecutor, logger *zap.Logger) (*InventorySyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &InventorySyncScheduler{
		config:   config,
		executor: executor,
		logger:   logger.Named("inventory_sync_scheduler"),
		jobs:     make(chan *InventorySyncJob, config.QueueSize),
		queued:   make(map[uuid.UUID]uuid.UUID),
		retries:  make(map[uuid.UUID]*time.Timer),
		history:  make([]*InventorySyncJob, 0, config.MaxHistory),
	}, nil
}

// Start starts the worker pool
func (s *InventorySyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Inventory sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler. Queued jobs and pending retries are dropped.
func (s *InventorySyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, timer := range s.retries {
		timer.Stop()
		delete(s.retries, id)
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.mu.Lock()
		clear(s.queued)
		s.mu.Unlock()
		s.logger.Info("Inventory sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Inventory sync scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns true while the worker pool is running
func (s *InventorySyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// ScheduleSync queues a sync of a sales channel
func (s *InventorySyncScheduler) ScheduleSync(salesChannelID uuid.UUID, trigger integration.SyncTrigger) (*InventorySyncJob, error) {
	job := NewInventorySyncJob(salesChannelID, trigger, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitJob submits a job for execution
func (s *InventorySyncScheduler) SubmitJob(job *InventorySyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	if _, ok := s.queued[job.SalesChannelID]; ok {
		return ErrJobAlreadyQueued
	}

	select {
	case s.jobs <- job:
		s.queued[job.SalesChannelID] = job.ID
		s.logger.Debug("Inventory sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("sales_channel_id", job.SalesChannelID.String()),
			zap.String("trigger", string(job.Trigger)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// IsQueued returns true if the sales channel has a pending or running job
func (s *InventorySyncScheduler) IsQueued(salesChannelID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.queued[salesChannelID]
	return ok
}

// worker processes jobs from the queue
func (s *InventorySyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Inventory sync worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Inventory sync worker stopping", zap.Int("worker_id", workerID))
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *InventorySyncScheduler) processJob(ctx context.Context, job *InventorySyncJob, workerID int) {
	job.Start()
	s.logger.Info("Processing inventory sync job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("sales_channel_id", job.SalesChannelID.String()),
		zap.Int("retry_count", job.RetryCount),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Inventory sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("sales_channel_id", job.SalesChannelID.String()),
			zap.Error(err),
		)

		if IsRetryable(err) && job.ShouldRetry() {
			s.scheduleRetry(job)
			return
		}
		s.finish(job)
		return
	}

	s.logger.Info("Inventory sync job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("sales_channel_id", job.SalesChannelID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("pulled_count", job.PulledCount),
		zap.Int("pushed_count", job.PushedCount),
		zap.Int("failed_count", job.FailedCount),
	)
	s.finish(job)
}

// scheduleRetry puts the job back on the queue once its backoff has elapsed
func (s *InventorySyncScheduler) scheduleRetry(job *InventorySyncJob) {
	delay := job.ScheduleRetry(s.config.RetryDelay)
	s.logger.Info("Inventory sync job scheduled for retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Time("next_retry_at", *job.NextRetryAt),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.retries[job.ID] = time.AfterFunc(delay, func() { s.requeue(job) })
}

func (s *InventorySyncScheduler) requeue(job *InventorySyncJob) {
	s.mu.Lock()
	delete(s.retries, job.ID)
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	select {
	case s.jobs <- job:
		s.mu.Unlock()
	default:
		delete(s.queued, job.SalesChannelID)
		s.mu.Unlock()
		s.logger.Warn("Failed to re-queue inventory sync job for retry",
			zap.String("job_id", job.ID.String()),
		)
		job.Fail(ErrJobQueueFull.Error())
		s.addToHistory(job)
	}
}

// finish releases the channel and records the job in history
func (s *InventorySyncScheduler) finish(job *InventorySyncJob) {
	s.mu.Lock()
	if s.queued[job.SalesChannelID] == job.ID {
		delete(s.queued, job.SalesChannelID)
	}
	s.mu.Unlock()
	s.addToHistory(job)
}

// addToHistory adds a finished job to history
func (s *InventorySyncScheduler) addToHistory(job *InventorySyncJob) {
	if s.config.MaxHistory == 0 {
		return
	}

	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*InventorySyncJob{job}, s.history...)
	if len(s.history) > s.config.MaxHistory {
		s.history = s.history[:s.config.MaxHistory]
	}
}

// GetJobHistory returns recent finished jobs, newest first
func (s *InventorySyncScheduler) GetJobHistory(limit int) []*InventorySyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*InventorySyncJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryBySalesChannel returns finished jobs of one sales channel
func (s *InventorySyncScheduler) GetJobHistoryBySalesChannel(salesChannelID uuid.UUID, limit int) []*InventorySyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 {
		limit = len(s.history)
	}
	result := make([]*InventorySyncJob, 0, limit)
	for _, job := range s.history {
		if job.SalesChannelID == salesChannelID {
			result = append(result, job)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}
