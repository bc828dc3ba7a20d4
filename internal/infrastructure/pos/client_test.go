package pos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paypos/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{"valid config", NewConfig(ProductionBaseURL), nil},
		{"defaults filled", &Config{BaseURL: "http://localhost:8080/"}, nil},
		{"missing base URL", &Config{}, ErrConfigMissingBaseURL},
		{"relative base URL", &Config{BaseURL: "inventory.izettle.com"}, ErrConfigInvalidBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, strings.HasSuffix(tt.config.BaseURL, "/"))
			assert.Positive(t, tt.config.Timeout)
			assert.Positive(t, tt.config.MaxResponseBytes)
		})
	}
}

func TestAPIKeyTokenSource(t *testing.T) {
	token, err := APIKeyTokenSource{}.Token(context.Background(), testSalesChannel())
	require.NoError(t, err)
	assert.Equal(t, "secret-key", token)

	_, err = APIKeyTokenSource{}.Token(context.Background(), &integration.POSSalesChannel{})
	assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
}

// ---------------------------------------------------------------------------
// Client Tests
// ---------------------------------------------------------------------------

func testSalesChannel() *integration.POSSalesChannel {
	return &integration.POSSalesChannel{
		ID:             uuid.New(),
		SalesChannelID: uuid.New(),
		Name:           "Store front",
		APIKey:         "secret-key",
		Enabled:        true,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *InventoryClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewInventoryClient(NewConfig(server.URL))
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestInventoryClient_FetchLocations(t *testing.T) {
	store, supplier, bin, sold := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	otherStore := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/organizations/self/inventory/locations", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

		body, _ := json.Marshal([]map[string]any{
			{"uuid": otherStore, "type": "STORE", "name": "Pop-up", "default": false},
			{"uuid": store, "type": "STORE", "name": "Main", "default": true},
			{"uuid": supplier, "type": "SUPPLIER", "name": "Supplier"},
			{"uuid": bin, "type": "BIN", "name": "Bin"},
			{"uuid": sold, "type": "SOLD", "name": "Sold"},
		})
		writeJSON(w, http.StatusOK, string(body))
	})

	locations, err := client.FetchLocations(context.Background(), testSalesChannel())
	require.NoError(t, err)
	assert.Equal(t, integration.Locations{
		StoreUUID:    store,
		SupplierUUID: supplier,
		BinUUID:      bin,
		SoldUUID:     sold,
	}, locations)
}

func TestInventoryClient_FetchLocations_Incomplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"uuid":"`+uuid.NewString()+`","type":"STORE"}]`)
	})

	_, err := client.FetchLocations(context.Background(), testSalesChannel())
	assert.ErrorIs(t, err, integration.ErrLocationsIncomplete)
}

func TestInventoryClient_FetchInventory(t *testing.T) {
	store := uuid.New()
	productUUID, variantUUID := uuid.New(), uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organizations/self/inventory/locations/"+store.String(), r.URL.Path)
		writeJSON(w, http.StatusOK, `{
			"locationUuid": "`+store.String()+`",
			"trackedProducts": ["`+productUUID.String()+`"],
			"variants": [
				{"locationUuid": "`+store.String()+`", "locationType": "STORE",
				 "productUuid": "`+productUUID.String()+`", "variantUuid": "`+variantUUID.String()+`",
				 "balance": "12.000"}
			]
		}`)
	})

	status, err := client.FetchInventory(context.Background(), testSalesChannel(), store)
	require.NoError(t, err)
	assert.Equal(t, store, status.LocationUUID)
	assert.Equal(t, []uuid.UUID{productUUID}, status.TrackedProducts)
	require.Len(t, status.Variants, 1)
	assert.Equal(t, integration.VariantBalance{ProductUUID: productUUID, VariantUUID: variantUUID, Balance: 12}, status.Variants[0])
}

func TestInventoryClient_StartTracking(t *testing.T) {
	productUUID := uuid.New()

	t.Run("returns balances", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/organizations/self/inventory", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req startTrackingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, productUUID, req.ProductUUID)

			writeJSON(w, http.StatusOK, `{"trackedProducts":["`+productUUID.String()+`"],
				"variants":[{"productUuid":"`+productUUID.String()+`","variantUuid":"`+uuid.NewString()+`","balance":0}]}`)
		})

		status, err := client.StartTracking(context.Background(), testSalesChannel(), productUUID)
		require.NoError(t, err)
		require.NotNil(t, status)
		assert.Len(t, status.Variants, 1)
	})

	t.Run("already tracked is success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"developerMessage":"Product already tracked","errorType":"ITEM_ALREADY_EXIST","violations":[]}`)
		})

		status, err := client.StartTracking(context.Background(), testSalesChannel(), productUUID)
		assert.NoError(t, err)
		assert.Nil(t, status)
	})

	t.Run("other errors are returned", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, `{"developerMessage":"No such product","errorType":"ENTITY_NOT_FOUND"}`)
		})

		_, err := client.StartTracking(context.Background(), testSalesChannel(), productUUID)
		require.Error(t, err)
		assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, ErrorTypeEntityNotFound, apiErr.ErrorType)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})
}

func TestInventoryClient_ChangeInventory(t *testing.T) {
	store, supplier, bin := uuid.New(), uuid.New(), uuid.New()
	p1, v1, v2 := uuid.New(), uuid.New(), uuid.New()
	p2, v3 := uuid.New(), uuid.New()

	change := integration.InventoryChange{
		ReturnBalanceForLocationUUID: store,
		Movements: []integration.InventoryMovement{
			{ProductUUID: p1, VariantUUID: v1, FromLocationUUID: supplier, ToLocationUUID: store, Change: 3},
			{ProductUUID: p2, VariantUUID: v3, FromLocationUUID: store, ToLocationUUID: bin, Change: 1},
			{ProductUUID: p1, VariantUUID: v2, FromLocationUUID: supplier, ToLocationUUID: store, Change: 2},
		},
	}

	var received bulkChangeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/organizations/self/inventory/bulk", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		writeJSON(w, http.StatusOK, `{"locationUuid":"`+store.String()+`","variants":[
			{"productUuid":"`+p1.String()+`","variantUuid":"`+v1.String()+`","balance":"3"},
			{"productUuid":"`+p1.String()+`","variantUuid":"`+v2.String()+`","balance":"2"}]}`)
	})

	status, err := client.ChangeInventory(context.Background(), testSalesChannel(), change)
	require.NoError(t, err)
	assert.Len(t, status.Variants, 2)

	assert.Equal(t, store, received.ReturnBalanceForLocationUUID)
	require.Len(t, received.ProductChanges, 2)
	assert.Equal(t, p1, received.ProductChanges[0].ProductUUID)
	assert.Len(t, received.ProductChanges[0].VariantChanges, 2)
	assert.Equal(t, p2, received.ProductChanges[1].ProductUUID)
	assert.Equal(t, bin, received.ProductChanges[1].VariantChanges[0].ToLocationUUID)
	assert.Equal(t, 1, received.ProductChanges[1].VariantChanges[0].Change)
}

func TestInventoryClient_ChangeInventory_Empty(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	status, err := client.ChangeInventory(context.Background(), testSalesChannel(), integration.InventoryChange{})
	require.NoError(t, err)
	assert.True(t, status.IsEmpty())
	assert.False(t, called)
}

func TestInventoryClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"developerMessage":"Invalid token"}`, integration.ErrPlatformAuthFailed, "Invalid token"},
		{"rate limited", http.StatusTooManyRequests, ``, integration.ErrPlatformRateLimited, "HTTP 429"},
		{"server error", http.StatusBadGateway, `<html>bad gateway</html>`, integration.ErrPlatformUnavailable, "bad gateway"},
		{
			"violations",
			http.StatusUnprocessableEntity,
			`{"developerMessage":"Validation failed","violations":[{"propertyName":"productUuid","developerMessage":"must not be null"}]}`,
			integration.ErrPlatformRequestFailed,
			"productUuid: must not be null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.FetchInventory(context.Background(), testSalesChannel(), uuid.New())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestInventoryClient_InvalidResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"variants": "nope"}`)
	})

	_, err := client.FetchInventory(context.Background(), testSalesChannel(), uuid.New())
	assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
}

func TestInventoryClient_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	config := NewConfig(server.URL)
	config.Timeout = 20 * time.Millisecond
	client, err := NewInventoryClient(config)
	require.NoError(t, err)

	_, err = client.FetchLocations(context.Background(), testSalesChannel())
	assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)
}

type staticTokenSource struct {
	token string
	err   error
}

func (s staticTokenSource) Token(context.Context, *integration.POSSalesChannel) (string, error) {
	return s.token, s.err
}

func TestInventoryClient_TokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer oauth-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer server.Close()

	client, err := NewInventoryClient(NewConfig(server.URL), WithTokenSource(staticTokenSource{token: "oauth-token"}))
	require.NoError(t, err)
	_, err = client.FetchInventory(context.Background(), testSalesChannel(), uuid.New())
	require.NoError(t, err)

	failing, err := NewInventoryClient(NewConfig(server.URL), WithTokenSource(staticTokenSource{err: errors.New("expired")}))
	require.NoError(t, err)
	_, err = failing.FetchInventory(context.Background(), testSalesChannel(), uuid.New())
	assert.EqualError(t, err, "expired")
}
