package testutil

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paypos/backend/internal/interfaces/http/middleware"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	assert.NotNil(t, mockDB.SqlDB)

	// No expectations set, should pass
	mockDB.ExpectationsWereMet(t)
}

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t)

	assert.NotNil(t, tc.Context)
	assert.NotNil(t, tc.Recorder)
	assert.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)
}

func TestTestContext_SetRequestID(t *testing.T) {
	tc := NewTestContext(t)

	tc.SetRequestID("req-123")

	assert.Equal(t, "req-123", middleware.GetRequestID(tc.Context))
}

func TestTestContext_SetHeader(t *testing.T) {
	tc := NewTestContext(t)

	tc.SetHeader("Authorization", "Bearer token")

	assert.Equal(t, "Bearer token", tc.Context.Request.Header.Get("Authorization"))
}

func TestTestContext_ResponseCode(t *testing.T) {
	tc := NewTestContext(t)
	tc.Recorder.WriteHeader(http.StatusCreated)

	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
}

func TestNewTestUUID(t *testing.T) {
	uuid1 := NewTestUUID("test-seed")
	uuid2 := NewTestUUID("test-seed")
	uuid3 := NewTestUUID("different-seed")

	assert.Equal(t, uuid1, uuid2)
	assert.NotEqual(t, uuid1, uuid3)
	assert.Equal(t, TestSalesChannelTypeID(), TestSalesChannelTypeID())
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, 100*time.Millisecond)

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.True(t, deadline.After(time.Now()))
}

func TestAssertEventually(t *testing.T) {
	var counter atomic.Int32
	go func() {
		time.Sleep(50 * time.Millisecond)
		counter.Store(1)
	}()

	AssertEventually(t, func() bool {
		return counter.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool {
		return false
	}, 50*time.Millisecond, 10*time.Millisecond)
}

func newTestEngine() *gin.Engine {
	engine := gin.New()
	engine.GET("/channels/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"id": c.Param("id")}})
	})
	engine.POST("/fail", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   gin.H{"code": "ERR_SYNC_ALREADY_RUNNING", "message": "busy"},
		})
	})
	return engine
}

func TestRunHTTPTestCases(t *testing.T) {
	RunHTTPTestCases(t, newTestEngine(), []HTTPTestCase{
		{
			Name:           "path parameter is routed",
			Path:           "/channels/abc",
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *TestContext) {
				AssertSuccessResponse(t, tc)
				resp := JSONResponse(t, tc)
				assert.Equal(t, "abc", resp["data"].(map[string]interface{})["id"])
			},
		},
		{
			Name:           "error code is checked",
			Method:         http.MethodPost,
			Path:           "/fail",
			Body:           map[string]string{"trigger": "MANUAL"},
			ExpectedStatus: http.StatusConflict,
			ExpectedCode:   "ERR_SYNC_ALREADY_RUNNING",
		},
		{
			Name:           "unknown route",
			Path:           "/missing",
			ExpectedStatus: http.StatusNotFound,
		},
	})
}

func TestJSONResponseAs(t *testing.T) {
	type response struct {
		Key string `json:"key"`
	}

	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusOK, gin.H{"key": "value"})

	resp := JSONResponseAs[response](t, tc)
	assert.Equal(t, "value", resp.Key)
}

func TestToJSONReader(t *testing.T) {
	reader := ToJSONReader(t, map[string]string{"key": "value"})
	require.NotNil(t, reader)
}
