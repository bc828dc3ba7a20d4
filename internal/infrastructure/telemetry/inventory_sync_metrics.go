package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InventorySyncMetrics tracks POS inventory sync runs.
type InventorySyncMetrics struct {
	logger *zap.Logger

	runsTotal            *Counter
	movementsTotal       *Counter
	trackingStartedTotal *Counter
	failuresTotal        *Counter
	runDuration          *Histogram
	enabledChannels      *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// SalesChannelCounter counts the sales channels taking part in scheduled syncs.
type SalesChannelCounter interface {
	CountEnabled(ctx context.Context) (int64, error)
}

// InventorySyncMetricsConfig holds configuration for sync metrics.
type InventorySyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// MovementDirection labels which side of the sync a stock change went to.
type MovementDirection string

const (
	// DirectionPull is a POS change applied to the catalog
	DirectionPull MovementDirection = "pull"
	// DirectionPush is a catalog change sent to the POS
	DirectionPush MovementDirection = "push"
)

// NewInventorySyncMetrics creates the sync metric instruments.
func NewInventorySyncMetrics(cfg InventorySyncMetricsConfig) (*InventorySyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &InventorySyncMetrics{
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	var err error
	if m.runsTotal, err = NewCounter(cfg.Meter,
		"inventory_sync_runs_total", "Total number of inventory sync runs", "{runs}"); err != nil {
		return nil, err
	}
	if m.movementsTotal, err = NewCounter(cfg.Meter,
		"inventory_sync_movements_total", "Total number of stock changes applied by inventory sync", "{changes}"); err != nil {
		return nil, err
	}
	if m.trackingStartedTotal, err = NewCounter(cfg.Meter,
		"inventory_sync_tracking_started_total", "Total number of products for which POS tracking was started", "{products}"); err != nil {
		return nil, err
	}
	if m.failuresTotal, err = NewCounter(cfg.Meter,
		"inventory_sync_failures_total", "Total number of products that failed to sync", "{products}"); err != nil {
		return nil, err
	}
	if m.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "inventory_sync_duration_seconds",
		Description: "Duration of inventory sync runs",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.enabledChannels, err = NewGauge(cfg.Meter,
		"pos_sales_channels_enabled", "Number of POS sales channels enabled for scheduled sync", "{channels}"); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun records a finished run.
func (m *InventorySyncMetrics) RecordRun(ctx context.Context, salesChannelID uuid.UUID, status, trigger string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		AttrSalesChannelID.String(salesChannelID.String()),
		AttrSyncStatus.String(status),
		AttrSyncTrigger.String(trigger),
	}
	m.runsTotal.Inc(ctx, attrs...)
	m.runDuration.RecordDuration(ctx, duration, attrs...)
}

// RecordMovements records stock changes applied in one direction.
func (m *InventorySyncMetrics) RecordMovements(ctx context.Context, salesChannelID uuid.UUID, direction MovementDirection, count int) {
	if count <= 0 {
		return
	}
	m.movementsTotal.Add(ctx, int64(count),
		AttrSalesChannelID.String(salesChannelID.String()),
		AttrDirection.String(string(direction)),
	)
}

// RecordTrackingStarted records products for which tracking was started.
func (m *InventorySyncMetrics) RecordTrackingStarted(ctx context.Context, salesChannelID uuid.UUID, count int) {
	if count <= 0 {
		return
	}
	m.trackingStartedTotal.Add(ctx, int64(count), AttrSalesChannelID.String(salesChannelID.String()))
}

// RecordFailures records products that failed to sync.
func (m *InventorySyncMetrics) RecordFailures(ctx context.Context, salesChannelID uuid.UUID, count int) {
	if count <= 0 {
		return
	}
	m.failuresTotal.Add(ctx, int64(count), AttrSalesChannelID.String(salesChannelID.String()))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection periodically records the number of enabled sales channels.
// It is non-blocking; use Stop to end collection.
func (m *InventorySyncMetrics) StartPeriodicCollection(ctx context.Context, counter SalesChannelCounter, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go m.runPeriodicCollection(ctx, counter, interval)
	})
}

func (m *InventorySyncMetrics) runPeriodicCollection(ctx context.Context, counter SalesChannelCounter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collect(ctx, counter)

	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx, counter)
		}
	}
}

func (m *InventorySyncMetrics) collect(ctx context.Context, counter SalesChannelCounter) {
	count, err := counter.CountEnabled(ctx)
	if err != nil {
		m.logger.Warn("Failed to count enabled POS sales channels", zap.Error(err))
		return
	}
	m.enabledChannels.Record(ctx, count)
}

// Stop stops the periodic collection.
func (m *InventorySyncMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewInventorySyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
