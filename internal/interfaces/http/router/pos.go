package router

import (
	"github.com/gin-gonic/gin"

	"github.com/paypos/backend/internal/interfaces/http/handler"
)

// InventorySyncRoutes groups the POS inventory sync endpoints under /pos.
// middleware runs for these routes only.
func InventorySyncRoutes(h *handler.InventorySyncHandler, middleware ...gin.HandlerFunc) *RouteGroup {
	return NewRouteGroup("/pos").
		Use(middleware...).
		POST("/sales-channels/:id/inventory-sync", h.TriggerSync).
		GET("/sales-channels/:id/inventory-sync/last", h.GetLastRun).
		GET("/sales-channels/:id/inventory-sync/runs", h.ListRuns)
}
