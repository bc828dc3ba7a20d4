package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paypos/backend/internal/domain/integration"
)

// SalesChannelLister lists the POS sales channels due for a scheduled sync
type SalesChannelLister interface {
	FindEnabled(ctx context.Context) ([]integration.POSSalesChannel, error)
}

// IntervalTrigger enqueues one scheduled sync job per enabled sales channel
// every interval
type IntervalTrigger struct {
	interval  time.Duration
	scheduler *InventorySyncScheduler
	channels  SalesChannelLister
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastTick  time.Time
}

// NewIntervalTrigger creates a new interval trigger
func NewIntervalTrigger(
	interval time.Duration,
	scheduler *InventorySyncScheduler,
	channels SalesChannelLister,
	logger *zap.Logger,
) *IntervalTrigger {
	return &IntervalTrigger{
		interval:  interval,
		scheduler: scheduler,
		channels:  channels,
		logger:    logger.Named("inventory_sync_trigger"),
	}
}

// Start starts the trigger loop. The first round is scheduled immediately.
func (t *IntervalTrigger) Start(ctx context.Context) error {
	if t.interval <= 0 {
		return ErrInvalidConfig
	}

	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Inventory sync trigger started", zap.Duration("interval", t.interval))
	return nil
}

// Stop stops the trigger loop
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Inventory sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastTick returns when channels were last scheduled
func (t *IntervalTrigger) LastTick() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastTick
}

func (t *IntervalTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.ScheduleAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.ScheduleAll(ctx)
		}
	}
}

// ScheduleAll submits a scheduled sync for every enabled sales channel and
// returns the number of jobs queued. Channels with a job still in the queue are skipped.
func (t *IntervalTrigger) ScheduleAll(ctx context.Context) int {
	channels, err := t.channels.FindEnabled(ctx)
	if err != nil {
		t.logger.Error("Failed to list enabled POS sales channels", zap.Error(err))
		return 0
	}

	t.mu.Lock()
	t.lastTick = time.Now()
	t.mu.Unlock()

	if len(channels) == 0 {
		t.logger.Debug("No enabled POS sales channels")
		return 0
	}

	scheduled := 0
	for _, channel := range channels {
		_, err := t.scheduler.ScheduleSync(channel.SalesChannelID, integration.SyncTriggerScheduled)
		switch {
		case err == nil:
			scheduled++
		case errors.Is(err, ErrJobAlreadyQueued):
			t.logger.Debug("Inventory sync still queued, skipping",
				zap.String("sales_channel_id", channel.SalesChannelID.String()),
			)
		default:
			t.logger.Error("Failed to schedule inventory sync",
				zap.String("sales_channel_id", channel.SalesChannelID.String()),
				zap.Error(err),
			)
		}
	}

	t.logger.Info("Scheduled inventory sync jobs",
		zap.Int("channels", len(channels)),
		zap.Int("scheduled", scheduled),
	)
	return scheduled
}
