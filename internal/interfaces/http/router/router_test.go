package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewRouteGroup("/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	base := NewRouter(engine, WithAPIVersion("v2")).Register(group).Setup()
	assert.Equal(t, "/api/v2", base)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouteGroup(t *testing.T) {
	t.Run("registers GET and POST routes", func(t *testing.T) {
		engine := gin.New()
		NewRouteGroup("/test").
			GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") }).
			RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/items", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/test/items", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("scopes middleware to the group", func(t *testing.T) {
		engine := gin.New()
		NewRouteGroup("/test").
			Use(func(c *gin.Context) {
				c.Header("X-Group", "test")
				c.Next()
			}).
			GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "ok") }).
			RegisterRoutes(engine.Group("/api/v1"))
		engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/items", nil))
		assert.Equal(t, "test", w.Header().Get("X-Group"))

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Empty(t, w.Header().Get("X-Group"))
	})
}

func TestInventorySyncRoutes_Paths(t *testing.T) {
	group := InventorySyncRoutes(handler.NewInventorySyncHandler(new(mockInventorySyncService)))

	assert.Equal(t, []string{
		"POST /pos/sales-channels/:id/inventory-sync",
		"GET /pos/sales-channels/:id/inventory-sync/last",
		"GET /pos/sales-channels/:id/inventory-sync/runs",
	}, group.Paths())
}

type mockInventorySyncService struct {
	mock.Mock
}

func (m *mockInventorySyncService) SyncInventory(ctx context.Context, salesChannelID uuid.UUID, trigger integration.SyncTrigger) (*integration.SyncResult, error) {
	args := m.Called(ctx, salesChannelID, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *mockInventorySyncService) LastRun(ctx context.Context, salesChannelID uuid.UUID) (*integration.InventorySyncRun, error) {
	args := m.Called(ctx, salesChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.InventorySyncRun), args.Error(1)
}

func (m *mockInventorySyncService) ListRuns(ctx context.Context, salesChannelID uuid.UUID, limit int) ([]integration.InventorySyncRun, error) {
	args := m.Called(ctx, salesChannelID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.InventorySyncRun), args.Error(1)
}

func TestInventorySyncRoutes(t *testing.T) {
	salesChannelID := uuid.New()
	service := new(mockInventorySyncService)
	service.On("SyncInventory", mock.Anything, salesChannelID, integration.SyncTriggerManual).
		Return(&integration.SyncResult{RunID: uuid.New(), SalesChannelID: salesChannelID, Status: integration.SyncStatusSuccess}, nil)
	service.On("LastRun", mock.Anything, salesChannelID).
		Return(&integration.InventorySyncRun{ID: uuid.New(), SalesChannelID: salesChannelID}, nil)
	service.On("ListRuns", mock.Anything, salesChannelID, 20).
		Return([]integration.InventorySyncRun{}, nil)

	engine := gin.New()
	NewRouter(engine).Register(InventorySyncRoutes(handler.NewInventorySyncHandler(service))).Setup()

	base := "/api/v1/pos/sales-channels/" + salesChannelID.String() + "/inventory-sync"
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, base},
		{http.MethodGet, base + "/last"},
		{http.MethodGet, base + "/runs"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusOK, w.Code, "route %s %s", tt.method, tt.path)
	}
	service.AssertExpectations(t)
}
