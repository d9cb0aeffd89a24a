package adapters

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ValidationError reports a bad product field. It is raised before any
// network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// AuthenticationError reports a rejected or expired token (HTTP 401). The
// caller should surface it as "reconnect required".
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Message
}

// PermissionError reports insufficient OAuth scope (HTTP 403)
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Message
}

// RateLimitError reports provider throttling (HTTP 429). RetryAfter carries
// the provider's Retry-After hint when present.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Message
}

// NotFoundError reports a missing remote resource (HTTP 404)
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Resource
}

// ProviderError reports any other non-2xx or malformed provider response
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return "provider error: " + e.Message
}

// TranslateStatus converts a non-2xx provider status into the error taxonomy
func TranslateStatus(statusCode int, body string) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return &AuthenticationError{Message: body}
	case http.StatusForbidden:
		return &PermissionError{Message: body}
	case http.StatusNotFound:
		return &NotFoundError{Resource: body}
	case http.StatusTooManyRequests:
		return &RateLimitError{Message: body}
	default:
		return &ProviderError{StatusCode: statusCode, Message: body}
	}
}

// IsRetryable reports whether an error is worth a backoff retry. Rate limits
// and 5xx/network-level provider failures are transient; everything else in
// the taxonomy is terminal.
func IsRetryable(err error) bool {
	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) {
		return true
	}
	var provider *ProviderError
	if errors.As(err, &provider) {
		return provider.StatusCode == 0 || provider.StatusCode >= 500
	}
	return false
}

// UnsupportedMarketplaceError is returned when a marketplace type is not
// registered with the resolver
type UnsupportedMarketplaceError struct {
	MarketplaceType string
}

func (e *UnsupportedMarketplaceError) Error() string {
	return "unsupported marketplace: " + e.MarketplaceType
}
