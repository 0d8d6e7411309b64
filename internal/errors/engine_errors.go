package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Errors that should not be retried
	ErrorCategoryFatal         ErrorCategory = "FATAL"
	ErrorCategoryCredentials   ErrorCategory = "CREDENTIALS"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"
	ErrorCategoryNotFound      ErrorCategory = "NOT_FOUND"
	ErrorCategoryStorage       ErrorCategory = "STORAGE"

	// Errors that can be retried
	ErrorCategoryNetwork   ErrorCategory = "NETWORK"
	ErrorCategoryTimeout   ErrorCategory = "TIMEOUT"
	ErrorCategoryExchange  ErrorCategory = "EXCHANGE"
	ErrorCategoryTemporary ErrorCategory = "TEMPORARY"
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
)

// EngineError represents a categorized error with context
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether this error can be retried
func (e *EngineError) IsRetryable() bool {
	return e.Retryable
}

// IsFatal returns whether this error should stop the caller
func (e *EngineError) IsFatal() bool {
	return e.Category == ErrorCategoryFatal ||
		e.Category == ErrorCategoryCredentials ||
		e.Category == ErrorCategoryConfiguration
}

// New creates a new categorized error
func New(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Retryable: isRetryableCategory(category),
	}
}

// Wrap wraps an existing error with category and location
func Wrap(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
		Retryable:  isRetryableCategory(category),
	}
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRetryable sets the retryable flag
func (e *EngineError) WithRetryable(retryable bool) *EngineError {
	e.Retryable = retryable
	return e
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryTemporary,
		ErrorCategoryRateLimit, ErrorCategoryExchange:
		return true
	default:
		return false
	}
}

// CategorizeError attempts to categorize a generic error from its text
func CategorizeError(err error, component, operation string) *EngineError {
	if err == nil {
		return nil
	}

	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "context deadline exceeded"):
		return Wrap(err, ErrorCategoryTimeout, component, operation)

	case strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests") ||
		strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") ||
		strings.Contains(errMsg, "resource_exhausted"):
		return Wrap(err, ErrorCategoryRateLimit, component, operation)

	case strings.Contains(errMsg, "api key") || strings.Contains(errMsg, "api secret") ||
		strings.Contains(errMsg, "authentication") || strings.Contains(errMsg, "unauthorized"):
		return Wrap(err, ErrorCategoryCredentials, component, operation)

	case strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "unsupported") ||
		strings.Contains(errMsg, "404"):
		return Wrap(err, ErrorCategoryNotFound, component, operation)

	case strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "dns") || strings.Contains(errMsg, "dial"):
		return Wrap(err, ErrorCategoryNetwork, component, operation)

	case strings.Contains(errMsg, "overloaded") || strings.Contains(errMsg, "unavailable") ||
		strings.Contains(errMsg, "503") || strings.Contains(errMsg, "500") ||
		strings.Contains(errMsg, "502") || strings.Contains(errMsg, "504"):
		return Wrap(err, ErrorCategoryTemporary, component, operation)

	case strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "malformed"):
		return Wrap(err, ErrorCategoryValidation, component, operation)
	}

	// Unknown errors are treated as transient
	return Wrap(err, ErrorCategoryTemporary, component, operation)
}

// Common error constructors
func NewValidationError(component, operation, message string) *EngineError {
	return New(ErrorCategoryValidation, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *EngineError {
	return New(ErrorCategoryConfiguration, component, operation, message)
}

func NewStorageError(component, operation string, err error) *EngineError {
	return Wrap(err, ErrorCategoryStorage, component, operation)
}

func NewExchangeError(component, operation string, err error) *EngineError {
	return Wrap(err, ErrorCategoryExchange, component, operation)
}

func NewNetworkError(component, operation string, err error) *EngineError {
	return Wrap(err, ErrorCategoryNetwork, component, operation)
}

// RecoveryAction is what a caller should do after a failed attempt
type RecoveryAction string

const (
	RecoveryActionRetry    RecoveryAction = "RETRY"
	RecoveryActionWait     RecoveryAction = "WAIT"
	RecoveryActionFallback RecoveryAction = "FALLBACK"
	RecoveryActionSkip     RecoveryAction = "SKIP"
	RecoveryActionStop     RecoveryAction = "STOP"
)

// GetRecoveryAction suggests a recovery action based on error category
func (e *EngineError) GetRecoveryAction() RecoveryAction {
	switch e.Category {
	case ErrorCategoryFatal, ErrorCategoryCredentials, ErrorCategoryConfiguration:
		return RecoveryActionStop
	case ErrorCategoryRateLimit:
		return RecoveryActionWait
	case ErrorCategoryNotFound:
		return RecoveryActionFallback
	case ErrorCategoryValidation, ErrorCategoryStorage:
		return RecoveryActionSkip
	default:
		if e.Retryable {
			return RecoveryActionRetry
		}
		return RecoveryActionSkip
	}
}
