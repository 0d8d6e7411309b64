package bybit

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
)

// APIError represents a non-zero retCode returned by the Bybit v5 API
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
}

func (e *APIError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("Bybit API error %d: %s (%s %s)", e.Code, e.Message, e.Category, e.Symbol)
	}
	return fmt.Sprintf("Bybit API error %d: %s", e.Code, e.Message)
}

// Common Bybit error codes
const (
	ErrCodeServerError       = 10000
	ErrCodeInvalidParams     = 10001
	ErrCodeInvalidTimestamp  = 10002
	ErrCodeInvalidAPIKey     = 10003
	ErrCodeInvalidSignature  = 10004
	ErrCodeRateLimitExceeded = 10006
	ErrCodeServiceBusy       = 10016
	ErrCodeSymbolNotFound    = 110009
)

// IsRetryable reports whether the request may succeed if sent again
func (e *APIError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeServerError, ErrCodeRateLimitExceeded, ErrCodeServiceBusy,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// EngineCategory maps the Bybit code onto the engine's error taxonomy
func (e *APIError) EngineCategory() apperrors.ErrorCategory {
	switch e.Code {
	case ErrCodeInvalidAPIKey, ErrCodeInvalidSignature, ErrCodeInvalidTimestamp:
		return apperrors.ErrorCategoryCredentials
	case ErrCodeRateLimitExceeded:
		return apperrors.ErrorCategoryRateLimit
	case ErrCodeSymbolNotFound, ErrCodeInvalidParams:
		// Symbol missing from this category; the next category may list it
		return apperrors.ErrorCategoryNotFound
	}
	if e.IsRetryable() {
		return apperrors.ErrorCategoryExchange
	}
	return apperrors.ErrorCategoryValidation
}

// ParseAPIError converts a retCode/retMsg pair into a categorized error
func ParseAPIError(operation string, retCode int, retMsg, category, symbol string) error {
	if retCode == 0 {
		return nil
	}

	apiErr := &APIError{Code: retCode, Message: retMsg, Category: category, Symbol: symbol}
	return apperrors.Wrap(apiErr, apiErr.EngineCategory(), "bybit", operation).
		WithRetryable(apiErr.IsRetryable()).
		WithContext("retCode", retCode)
}

// IsRetryableError is the retry classifier for Bybit calls. API errors use
// their code; anything else falls back to text categorization.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return apperrors.CategorizeError(err, "bybit", "classify").IsRetryable()
}
