package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/infrastructure/logger"
	"github.com/paypos/backend/internal/interfaces/http/dto"
)

const defaultRunListLimit = 20

// InventorySyncService is the application service behind the inventory sync API
type InventorySyncService interface {
	SyncInventory(ctx context.Context, salesChannelID uuid.UUID, trigger integration.SyncTrigger) (*integration.SyncResult, error)
	LastRun(ctx context.Context, salesChannelID uuid.UUID) (*integration.InventorySyncRun, error)
	ListRuns(ctx context.Context, salesChannelID uuid.UUID, limit int) ([]integration.InventorySyncRun, error)
}

// InventorySyncHandler triggers POS inventory syncs and serves the run log
type InventorySyncHandler struct {
	BaseHandler
	service InventorySyncService
}

// NewInventorySyncHandler creates a new InventorySyncHandler
func NewInventorySyncHandler(service InventorySyncService) *InventorySyncHandler {
	return &InventorySyncHandler{service: service}
}

// TriggerSync runs a manual inventory sync and returns its result.
// POST /pos/sales-channels/:id/inventory-sync
func (h *InventorySyncHandler) TriggerSync(c *gin.Context) {
	salesChannelID, ok := h.bindSalesChannelID(c)
	if !ok {
		return
	}

	result, err := h.service.SyncInventory(c.Request.Context(), salesChannelID, integration.SyncTriggerManual)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if result != nil {
			fields = append(fields, zap.String("sync_run_id", result.RunID.String()))
		}
		logger.GetGinLogger(c).Warn("Manual inventory sync failed", fields...)
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToSyncResultResponse(result))
}

// GetLastRun returns the latest run of a sales channel.
// GET /pos/sales-channels/:id/inventory-sync/last
func (h *InventorySyncHandler) GetLastRun(c *gin.Context) {
	salesChannelID, ok := h.bindSalesChannelID(c)
	if !ok {
		return
	}

	run, err := h.service.LastRun(c.Request.Context(), salesChannelID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToSyncRunResponse(run))
}

// ListRuns returns the most recent runs of a sales channel, newest first.
// GET /pos/sales-channels/:id/inventory-sync/runs?limit=
func (h *InventorySyncHandler) ListRuns(c *gin.Context) {
	salesChannelID, ok := h.bindSalesChannelID(c)
	if !ok {
		return
	}

	var req dto.ListSyncRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "limit must be between 1 and 100")
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultRunListLimit
	}

	runs, err := h.service.ListRuns(c.Request.Context(), salesChannelID, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessList(c, dto.ToSyncRunResponses(runs), len(runs), req.Limit)
}

func (h *InventorySyncHandler) bindSalesChannelID(c *gin.Context) (uuid.UUID, bool) {
	var uri dto.SalesChannelURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid sales channel ID")
		return uuid.Nil, false
	}
	id, err := integration.ParseIdentifier(uri.ID)
	if err != nil {
		h.BadRequest(c, "Invalid sales channel ID")
		return uuid.Nil, false
	}
	return id, true
}
