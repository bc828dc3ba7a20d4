// Package pos implements the POS inventory API client.
package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paypos/backend/internal/domain/integration"
)

const (
	locationsPath     = "/organizations/self/inventory/locations"
	inventoryPath     = "/organizations/self/inventory"
	bulkInventoryPath = "/organizations/self/inventory/bulk"
)

// InventoryClient implements integration.InventoryResource over the POS HTTP API
type InventoryClient struct {
	config     *Config
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
}

// Option configures an InventoryClient
type Option func(*InventoryClient)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(ic *InventoryClient) { ic.httpClient = c }
}

// WithTokenSource replaces the default API key token source
func WithTokenSource(ts TokenSource) Option {
	return func(ic *InventoryClient) { ic.tokens = ts }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(ic *InventoryClient) { ic.logger = l }
}

// NewInventoryClient creates a new POS inventory client
func NewInventoryClient(config *Config, opts ...Option) (*InventoryClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &InventoryClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		tokens:     APIKeyTokenSource{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ integration.InventoryResource = (*InventoryClient)(nil)

// ---------------------------------------------------------------------------
// InventoryResource
// ---------------------------------------------------------------------------

// FetchLocations returns the default store, supplier, bin and sold locations
func (c *InventoryClient) FetchLocations(ctx context.Context, salesChannel *integration.POSSalesChannel) (integration.Locations, error) {
	var resp []locationResponse
	if err := c.doJSON(ctx, salesChannel, http.MethodGet, locationsPath, nil, &resp); err != nil {
		return integration.Locations{}, err
	}

	locations := toLocations(resp)
	if err := locations.Validate(); err != nil {
		return integration.Locations{}, err
	}
	return locations, nil
}

// FetchInventory returns the inventory status of a location
func (c *InventoryClient) FetchInventory(ctx context.Context, salesChannel *integration.POSSalesChannel, locationUUID uuid.UUID) (*integration.InventoryStatus, error) {
	var resp statusResponse
	if err := c.doJSON(ctx, salesChannel, http.MethodGet, locationsPath+"/"+locationUUID.String(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toInventoryStatus(), nil
}

// StartTracking enables stock tracking for a product. A product that is
// already tracked is reported as success without balances.
func (c *InventoryClient) StartTracking(ctx context.Context, salesChannel *integration.POSSalesChannel, productUUID uuid.UUID) (*integration.InventoryStatus, error) {
	var resp statusResponse
	err := c.doJSON(ctx, salesChannel, http.MethodPost, inventoryPath, startTrackingRequest{ProductUUID: productUUID}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsAlreadyExists() {
			c.logger.Debug("POS product already tracked", zap.String("product_uuid", productUUID.String()))
			return nil, nil
		}
		return nil, err
	}
	return resp.toInventoryStatus(), nil
}

// ChangeInventory applies the movements in one bulk request
func (c *InventoryClient) ChangeInventory(ctx context.Context, salesChannel *integration.POSSalesChannel, change integration.InventoryChange) (*integration.InventoryStatus, error) {
	if change.IsEmpty() {
		return &integration.InventoryStatus{LocationUUID: change.ReturnBalanceForLocationUUID}, nil
	}

	var resp statusResponse
	if err := c.doJSON(ctx, salesChannel, http.MethodPut, bulkInventoryPath, newBulkChangeRequest(change), &resp); err != nil {
		return nil, err
	}
	return resp.toInventoryStatus(), nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doJSON sends body as JSON and decodes the response into out
func (c *InventoryClient) doJSON(ctx context.Context, salesChannel *integration.POSSalesChannel, method, path string, body, out any) error {
	data, err := c.doRequest(ctx, salesChannel, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", integration.ErrPlatformInvalidResponse, method, path, err)
	}
	return nil
}

// doRequest performs an HTTP request to the POS API
func (c *InventoryClient) doRequest(ctx context.Context, salesChannel *integration.POSSalesChannel, method, path string, body any) ([]byte, error) {
	token, err := c.tokens.Token(ctx, salesChannel)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("pos: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("pos: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("pos: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := parseAPIError(resp.StatusCode, data)
		c.logger.Debug("POS request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("error_type", apiErr.ErrorType),
		)
		return nil, fmt.Errorf("%w: %w", statusError(resp.StatusCode), apiErr)
	}

	return data, nil
}

// parseAPIError decodes an error body. Bodies that are not JSON become the developer message.
func parseAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.DeveloperMessage = string(bytes.TrimSpace(data))
	}
	apiErr.StatusCode = status
	return apiErr
}

// statusError maps an HTTP status to the platform sentinel error
func statusError(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return integration.ErrPlatformAuthFailed
	case status == http.StatusTooManyRequests:
		return integration.ErrPlatformRateLimited
	case status >= 500:
		return integration.ErrPlatformUnavailable
	default:
		return integration.ErrPlatformRequestFailed
	}
}
