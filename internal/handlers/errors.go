package handlers

import (
	"errors"
	"net/http"

	"marketplace-sync-service/internal/adapters"
)

// statusForError maps adapter errors to HTTP status codes
func statusForError(err error) int {
	var validation *adapters.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest
	}
	var unsupported *adapters.UnsupportedMarketplaceError
	if errors.As(err, &unsupported) {
		return http.StatusBadRequest
	}
	var auth *adapters.AuthenticationError
	if errors.As(err, &auth) {
		return http.StatusUnauthorized
	}
	var permission *adapters.PermissionError
	if errors.As(err, &permission) {
		return http.StatusForbidden
	}
	var notFound *adapters.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	var rateLimit *adapters.RateLimitError
	if errors.As(err, &rateLimit) {
		return http.StatusTooManyRequests
	}
	var provider *adapters.ProviderError
	if errors.As(err, &provider) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
