package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/domain/shared"
	"github.com/paypos/backend/internal/infrastructure/logger"
	"github.com/paypos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InventorySyncConfig holds the settings of the sync service
type InventorySyncConfig struct {
	// ExpectedSalesChannelTypeID is the sales channel type of POS channels
	ExpectedSalesChannelTypeID uuid.UUID
	// LockTTL bounds how long a crashed run can block its channel
	LockTTL time.Duration
}

// DefaultInventorySyncConfig returns the default sync settings
func DefaultInventorySyncConfig(salesChannelTypeID uuid.UUID) InventorySyncConfig {
	return InventorySyncConfig{
		ExpectedSalesChannelTypeID: salesChannelTypeID,
		LockTTL:                    10 * time.Minute,
	}
}

// InventorySyncService reconciles catalog stock with POS stock, one sales channel at a time
type InventorySyncService struct {
	resource     integration.InventoryResource
	channelRepo  integration.POSSalesChannelRepository
	catalogRepo  integration.CatalogProductRepository
	snapshotRepo integration.LocalInventoryRepository
	runRepo      integration.InventorySyncRunRepository
	lock         integration.RunLock
	publisher    integration.SyncEventPublisher
	converter    *integration.ProductConverter
	config       InventorySyncConfig
	logger       *zap.Logger
	metrics      *telemetry.InventorySyncMetrics
}

// NewInventorySyncService creates a new InventorySyncService
func NewInventorySyncService(
	resource integration.InventoryResource,
	channelRepo integration.POSSalesChannelRepository,
	catalogRepo integration.CatalogProductRepository,
	snapshotRepo integration.LocalInventoryRepository,
	runRepo integration.InventorySyncRunRepository,
	lock integration.RunLock,
	publisher integration.SyncEventPublisher,
	config InventorySyncConfig,
	logger *zap.Logger,
) *InventorySyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 10 * time.Minute
	}
	return &InventorySyncService{
		resource:     resource,
		channelRepo:  channelRepo,
		catalogRepo:  catalogRepo,
		snapshotRepo: snapshotRepo,
		runRepo:      runRepo,
		lock:         lock,
		publisher:    publisher,
		converter:    integration.NewProductConverter(),
		config:       config,
		logger:       logger.Named("inventory_sync"),
	}
}

// SetMetrics sets the sync metrics collector
func (s *InventorySyncService) SetMetrics(m *telemetry.InventorySyncMetrics) {
	s.metrics = m
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

// SyncInventory runs one inventory sync for a sales channel.
//
// POS changes since the last run are pulled into the catalog first, then
// catalog changes are pushed to the POS in one batch. The local snapshot is
// the common ancestor both sides are diffed against, and it is saved together
// with every change that was applied. Per-product failures are recorded on
// the run; only run-level failures are returned as errors.
func (s *InventorySyncService) SyncInventory(
	ctx context.Context,
	salesChannelID uuid.UUID,
	trigger integration.SyncTrigger,
) (*integration.SyncResult, error) {
	if !trigger.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRIGGER", fmt.Sprintf("invalid sync trigger %q", trigger))
	}

	channel, err := s.channelRepo.FindBySalesChannelID(ctx, salesChannelID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, integration.ErrSalesChannelNotFound
		}
		return nil, err
	}
	if !channel.Enabled {
		return nil, fmt.Errorf("%w: sales channel %s", integration.ErrPlatformNotEnabled, salesChannelID)
	}
	if err := channel.EnsurePOSType(s.config.ExpectedSalesChannelTypeID); err != nil {
		return nil, err
	}

	acquired, err := s.lock.Acquire(ctx, salesChannelID, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, integration.ErrSyncAlreadyRunning
	}
	defer func() {
		// The run context may already be cancelled
		if err := s.lock.Release(context.WithoutCancel(ctx), salesChannelID); err != nil {
			s.logger.Warn("Failed to release inventory sync lock",
				zap.String("sales_channel_id", salesChannelID.String()),
				zap.Error(err))
		}
	}()

	run := integration.NewInventorySyncRun(salesChannelID, trigger)
	ctx, _ = logger.WithSalesChannelID(ctx, s.logger, salesChannelID.String())
	ctx, _ = logger.WithSyncRunID(ctx, logger.FromContext(ctx), run.ID.String())
	log := logger.L(ctx)

	ctx, span := telemetry.StartSpan(ctx, "inventory_sync.run",
		telemetry.WithAttribute(telemetry.SpanAttrSalesChannelID, salesChannelID),
		telemetry.WithAttribute(telemetry.SpanAttrSyncRunID, run.ID),
		telemetry.WithAttribute(telemetry.SpanAttrSyncTrigger, string(trigger)),
	)
	defer span.End()

	if err := s.runRepo.Save(ctx, run); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save sync run: %w", err)
	}

	log.Info("Inventory sync started", zap.String("trigger", string(trigger)))

	if err := s.reconcile(ctx, channel, run); err != nil {
		run.Fail(err)
		s.finish(ctx, run)
		telemetry.RecordError(span, err)
		log.Error("Inventory sync failed", zap.Error(err))
		return run.Result(), fmt.Errorf("%w: %w", integration.ErrInventorySyncFailed, err)
	}

	run.Complete()
	s.finish(ctx, run)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSyncStatus, run.Status.String(),
		telemetry.SpanAttrItemCount, run.TotalCount,
		telemetry.SpanAttrFailureCount, run.FailedCount,
	)
	if run.Status == integration.SyncStatusFailed {
		telemetry.RecordError(span, integration.ErrInventorySyncFailed)
	} else {
		telemetry.SetOK(span)
	}

	log.Info("Inventory sync completed",
		zap.String("status", run.Status.String()),
		zap.Int("total", run.TotalCount),
		zap.Int("pulled", run.PulledCount),
		zap.Int("pushed", run.PushedCount),
		zap.Int("tracking_started", run.TrackingStarted),
		zap.Int("failed", run.FailedCount),
		zap.Duration("duration", run.Duration()),
	)

	return run.Result(), nil
}

// reconcile runs the pull and push phases. Errors it returns fail the whole run.
func (s *InventorySyncService) reconcile(ctx context.Context, channel *integration.POSSalesChannel, run *integration.InventorySyncRun) error {
	inventoryContext, products, err := s.prepare(ctx, channel, run)
	if err != nil {
		return err
	}
	run.TotalCount = len(products)

	skip := s.pull(ctx, inventoryContext, run, products)
	return s.push(ctx, inventoryContext, run, products, skip)
}

// prepare fetches both inventories and seeds the inventory context
func (s *InventorySyncService) prepare(
	ctx context.Context,
	channel *integration.POSSalesChannel,
	run *integration.InventorySyncRun,
) (*integration.InventoryContext, []integration.CatalogProduct, error) {
	locations, err := s.resource.FetchLocations(ctx, channel)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch locations: %w", err)
	}

	config, err := integration.NewRunConfig(run.ID, *channel, locations, run.Trigger)
	if err != nil {
		return nil, nil, err
	}

	external, err := s.resource.FetchInventory(ctx, channel, locations.StoreUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch inventory: %w", err)
	}

	local, err := s.snapshotRepo.FindBySalesChannel(ctx, channel.SalesChannelID)
	if err != nil {
		return nil, nil, fmt.Errorf("load inventory snapshot: %w", err)
	}

	products, err := s.catalogRepo.FindBySalesChannel(ctx, channel.SalesChannelID)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog products: %w", err)
	}

	return integration.NewInventoryContext(s.resource, config, external, local), products, nil
}

// pull applies POS balance changes to the catalog. Each record's stock is saved
// with its new snapshot entry. It returns the products whose stock could not
// be updated; they are left out of the push phase.
func (s *InventorySyncService) pull(
	ctx context.Context,
	ic *integration.InventoryContext,
	run *integration.InventorySyncRun,
	products []integration.CatalogProduct,
) map[uuid.UUID]struct{} {
	ctx, span := telemetry.StartSpan(ctx, "inventory_sync.pull")
	defer span.End()

	skip := make(map[uuid.UUID]struct{})
	salesChannelID := ic.SalesChannelID()

	for i := range products {
		product := &products[i]

		external, ok := ic.GetExternalInventory(*product, false)
		if !ok {
			continue
		}
		change := external - ic.GetLocalInventory(*product)
		if change == 0 {
			continue
		}

		stock := product.Stock + change
		entry := integration.NewLocalInventoryEntry(salesChannelID, *product, external)
		if err := s.catalogRepo.UpdateStockWithSnapshot(ctx, stock, entry); err != nil {
			run.RecordFailure(product.ID, integration.FailureCodeStockUpdate, err)
			skip[product.ID] = struct{}{}
			continue
		}
		product.Stock = stock
		ic.UpdateLocalInventory([]integration.LocalInventoryEntry{entry})
		run.PulledCount++
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrItemCount, run.PulledCount, telemetry.SpanAttrFailureCount, len(skip))
	if s.metrics != nil {
		s.metrics.RecordMovements(ctx, salesChannelID, telemetry.DirectionPull, run.PulledCount)
	}
	return skip
}

// push sends catalog stock changes to the POS in one batch. Records are
// grouped by POS product: tracking is started once per product and movement
// identifiers come from the converted POS product. The snapshot of the pushed
// records is saved as soon as the POS accepted the change; an error is
// returned only when that save fails.
func (s *InventorySyncService) push(
	ctx context.Context,
	ic *integration.InventoryContext,
	run *integration.InventorySyncRun,
	products []integration.CatalogProduct,
	skip map[uuid.UUID]struct{},
) error {
	ctx, span := telemetry.StartSpan(ctx, "inventory_sync.push")
	defer span.End()

	log := logger.L(ctx)
	salesChannelID := ic.SalesChannelID()
	locations := ic.RunConfig().Locations

	change := integration.InventoryChange{ReturnBalanceForLocationUUID: locations.StoreUUID}
	var pending []integration.CatalogProduct

	for _, grouping := range integration.GroupProducts(products) {
		posProduct := s.converter.Convert(grouping)

		var movements []integration.InventoryMovement
		var changed []integration.CatalogProduct
		for i, record := range grouping.SellableEntities() {
			if _, skipped := skip[record.ID]; skipped {
				continue
			}
			delta := record.Stock - ic.GetLocalInventory(record)
			movement, ok := locations.MovementFor(posProduct.UUID, posProduct.Variants[i].UUID, delta)
			if !ok {
				continue
			}
			movements = append(movements, movement)
			changed = append(changed, record)
		}
		if len(movements) == 0 {
			continue
		}

		if err := s.ensureTracking(ctx, ic, run, grouping); err != nil {
			for _, record := range changed {
				run.RecordFailure(record.ID, integration.FailureCodeTrackingStart, err)
			}
			continue
		}

		change.Movements = append(change.Movements, movements...)
		pending = append(pending, changed...)
	}

	if s.metrics != nil {
		s.metrics.RecordTrackingStarted(ctx, salesChannelID, run.TrackingStarted)
	}
	if change.IsEmpty() {
		return nil
	}

	status, err := s.resource.ChangeInventory(ctx, ic.POSSalesChannel(), change)
	if err != nil {
		log.Warn("POS rejected inventory change", zap.Int("movements", len(change.Movements)), zap.Error(err))
		telemetry.RecordError(span, err)
		for _, product := range pending {
			run.RecordFailure(product.ID, integration.FailureCodeChange, err)
		}
		return nil
	}

	if status != nil {
		for _, balance := range status.Variants {
			ic.AddExternalInventory(balance)
		}
	}

	entries := make([]integration.LocalInventoryEntry, 0, len(pending))
	for _, product := range pending {
		entries = append(entries, integration.NewLocalInventoryEntry(salesChannelID, product, product.Stock))
	}
	ic.UpdateLocalInventory(entries)
	run.PushedCount = len(pending)
	telemetry.SetAttributes(span, telemetry.SpanAttrItemCount, run.PushedCount)

	if s.metrics != nil {
		s.metrics.RecordMovements(ctx, salesChannelID, telemetry.DirectionPush, run.PushedCount)
	}

	// The POS already applied the change, so a cancelled run must still record it
	if err := s.snapshotRepo.Upsert(context.WithoutCancel(ctx), entries); err != nil {
		log.Error("POS applied inventory change but the snapshot was not saved",
			zap.Int("movements", len(change.Movements)), zap.Error(err))
		telemetry.RecordError(span, err)
		return fmt.Errorf("%w: %w", integration.ErrSnapshotNotSaved, err)
	}
	return nil
}

// ensureTracking starts POS stock tracking for the product of a grouping
// unless the POS already tracks it
func (s *InventorySyncService) ensureTracking(
	ctx context.Context,
	ic *integration.InventoryContext,
	run *integration.InventorySyncRun,
	grouping *integration.ProductGrouping,
) error {
	identity := grouping.IdentifyingEntity()
	if ic.IsExternallyTracked(identity) || ic.HasStartedTracking(identity) {
		return nil
	}
	if err := ic.StartTracking(ctx, identity); err != nil {
		return err
	}
	run.TrackingStarted++
	return nil
}

// finish persists the finished run, records metrics and publishes the event
func (s *InventorySyncService) finish(ctx context.Context, run *integration.InventorySyncRun) {
	log := logger.L(ctx)
	// Persist the outcome even if the caller has gone away
	saveCtx := context.WithoutCancel(ctx)

	if err := s.runRepo.Save(saveCtx, run); err != nil {
		log.Error("Failed to save inventory sync run", zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordRun(ctx, run.SalesChannelID, run.Status.String(), string(run.Trigger), run.Duration())
		s.metrics.RecordFailures(ctx, run.SalesChannelID, run.FailedCount)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishInventorySynced(saveCtx, integration.NewInventorySyncedEvent(run)); err != nil {
		log.Warn("Failed to publish inventory synced event", zap.Error(err))
	}
}

// SyncAll runs a sync for every enabled POS sales channel, one after another.
// A channel that fails does not stop the others.
func (s *InventorySyncService) SyncAll(ctx context.Context, trigger integration.SyncTrigger) ([]*integration.SyncResult, error) {
	channels, err := s.channelRepo.FindEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled sales channels: %w", err)
	}

	results := make([]*integration.SyncResult, 0, len(channels))
	var errs []error
	for _, channel := range channels {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		result, err := s.SyncInventory(ctx, channel.SalesChannelID, trigger)
		if err != nil {
			errs = append(errs, fmt.Errorf("sales channel %s: %w", channel.SalesChannelID, err))
		}
		if result != nil {
			results = append(results, result)
		}
	}

	return results, errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Run log queries
// ---------------------------------------------------------------------------

// LastRun returns the latest run of a sales channel
func (s *InventorySyncService) LastRun(ctx context.Context, salesChannelID uuid.UUID) (*integration.InventorySyncRun, error) {
	run, err := s.runRepo.FindLatest(ctx, salesChannelID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, integration.ErrSyncRunNotFound
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs of a sales channel, newest first
func (s *InventorySyncService) ListRuns(ctx context.Context, salesChannelID uuid.UUID, limit int) ([]integration.InventorySyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runRepo.FindRecent(ctx, salesChannelID, limit)
}
