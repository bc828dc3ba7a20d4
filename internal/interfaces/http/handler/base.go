package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/domain/shared"
	"github.com/paypos/backend/internal/interfaces/http/dto"
	"github.com/paypos/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// errorMapping pairs a domain error with its API code and client-facing message
type errorMapping struct {
	target  error
	code    string
	message string
}

// integrationErrors is checked in order; the first match wins
var integrationErrors = []errorMapping{
	{integration.ErrSalesChannelNotFound, dto.ErrCodeSalesChannelNotFound, "POS sales channel not found"},
	{integration.ErrSyncRunNotFound, dto.ErrCodeSyncRunNotFound, "No inventory sync run found for sales channel"},
	{integration.ErrSyncAlreadyRunning, dto.ErrCodeSyncAlreadyRunning, "An inventory sync is already running for this sales channel"},
	{integration.ErrPlatformNotEnabled, dto.ErrCodeSalesChannelDisabled, "POS integration is disabled for this sales channel"},
	{integration.ErrUnexpectedSalesChannelType, dto.ErrCodeSalesChannelType, "Sales channel is not a POS sales channel"},
	{integration.ErrSalesChannelInvalid, dto.ErrCodeSalesChannelInvalid, "POS sales channel is incomplete"},
	{integration.ErrLocationsIncomplete, dto.ErrCodeSalesChannelInvalid, "POS inventory locations are incomplete"},
	{integration.ErrPlatformNotConfigured, dto.ErrCodePlatformNotConfigured, "POS platform is not configured"},
	{integration.ErrPlatformAuthFailed, dto.ErrCodePlatformAuth, "POS platform rejected the credentials"},
	{integration.ErrPlatformRateLimited, dto.ErrCodePlatformRateLimited, "POS platform rate limit reached"},
	{integration.ErrPlatformUnavailable, dto.ErrCodePlatformUnavailable, "POS platform is unavailable"},
	{integration.ErrPlatformRequestFailed, dto.ErrCodePlatformUnavailable, "POS platform request failed"},
	{integration.ErrPlatformInvalidResponse, dto.ErrCodePlatformUnavailable, "POS platform returned an invalid response"},
	{integration.ErrInventorySyncFailed, dto.ErrCodeSyncFailed, "Inventory sync failed"},
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a success response for a bounded list
func (h *BaseHandler) SuccessList(c *gin.Context, data any, count, limit int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, count, limit))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	for _, m := range integrationErrors {
		if errors.Is(err, m.target) {
			h.ErrorWithCode(c, m.code, m.message)
			return
		}
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
