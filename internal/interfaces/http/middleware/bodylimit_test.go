package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/paypos/backend/internal/interfaces/http/dto"
)

// newLimitedRouter echoes how many body bytes the handler could read,
// answering 413 when the reader hit the limit.
func newLimitedRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	router.POST("/pos/sales-channels/:id/inventory-sync", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name          string
		limit         int64
		body          string
		contentLength int64
		wantStatus    int
		wantBody      string
	}{
		{name: "within limit", limit: 64, body: `{"trigger":"MANUAL"}`, contentLength: 20, wantStatus: http.StatusOK, wantBody: "20"},
		{name: "declared length over limit", limit: 8, body: `{"trigger":"MANUAL"}`, contentLength: 20, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "streamed body over limit", limit: 8, body: strings.Repeat("x", 32), contentLength: -1, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "limit disabled", limit: 0, body: strings.Repeat("x", 32), contentLength: 32, wantStatus: http.StatusOK, wantBody: "32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/pos/sales-channels/abc/inventory-sync", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()

			newLimitedRouter(tt.limit).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestBodyLimit_ErrorCarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/pos/sales-channels/abc/inventory-sync", strings.NewReader(strings.Repeat("x", 100)))
	req.Header.Set(RequestIDHeader, "req-large")
	w := httptest.NewRecorder()

	newLimitedRouter(10).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
	assert.Contains(t, w.Body.String(), "req-large")
}

func TestBodyLimit_EmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	newLimitedRouter(1).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pos/sales-channels/abc/inventory-sync", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Body.String())
}
