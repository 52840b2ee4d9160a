package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of an upstream exchange error.
type ErrorType int

// Error type constants categorize upstream failures so callers can decide
// which ones degrade silently and which ones are worth surfacing.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates the exchange rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid credentials or a missing
	// permission scope. Expected for partially-scoped API keys.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeParse indicates the response body could not be decoded.
	ErrorTypeParse
	// ErrorTypeServerError indicates an exchange-side error.
	ErrorTypeServerError
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"PARSE",
		"SERVER_ERROR",
	}[t]
}

// Sentinel errors for common conditions.
var (
	// ErrNoCredentials is returned when no API credentials are configured.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrBudgetExceeded is returned when an aggregation pass outlives its
	// overall time budget.
	ErrBudgetExceeded = errors.New("aggregation budget exceeded")
	// ErrAggregationCancelled is returned when the caller abandons an
	// aggregation pass before the budget runs out.
	ErrAggregationCancelled = errors.New("aggregation cancelled")
	// ErrCircuitBreakerOpen is returned when the circuit breaker rejects a call.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// UpstreamError is a structured error for a failed exchange call. Every
// account fetch converts one of these to a zero-valued result at its own
// boundary; the type exists so that conversion can tell an expected
// authentication rejection apart from genuine trouble.
type UpstreamError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code from the response, if any.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Endpoint identifies which endpoint produced the error.
	Endpoint string `json:"endpoint"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for UpstreamError.
func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			e.Endpoint, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		e.Endpoint, e.Type, e.StatusCode, e.Message)
}

// NewUpstreamError creates a new UpstreamError with the specified details.
// The timestamp is automatically set to the current time.
func NewUpstreamError(endpoint string, errorType ErrorType, statusCode int, message string) *UpstreamError {
	return &UpstreamError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Endpoint:   endpoint,
		Timestamp:  time.Now(),
	}
}

// NewUpstreamErrorWithCode creates a new UpstreamError including an
// exchange-specific error code.
func NewUpstreamErrorWithCode(endpoint string, errorType ErrorType, statusCode int, code, message string) *UpstreamError {
	return &UpstreamError{
		Type:       errorType,
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Endpoint:   endpoint,
		Timestamp:  time.Now(),
	}
}

// IsAuthenticationError returns true for credential or permission-scope
// rejections. These degrade silently: a key without a given scope is an
// expected configuration, not an incident.
func IsAuthenticationError(err error) bool {
	var e *UpstreamError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeAuthentication
	}
	return false
}

// IsNetworkError returns true if the error is a network connectivity issue.
func IsNetworkError(err error) bool {
	var e *UpstreamError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeNetwork
	}
	return false
}

// IsTimeoutError returns true if the error is a timeout.
func IsTimeoutError(err error) bool {
	var e *UpstreamError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeTimeout
	}
	return false
}
