package adapters

import (
	"net/http"
	"strconv"
	"time"
)

// TranslateResponse converts a non-2xx provider response into the error
// taxonomy, carrying the Retry-After hint on 429s.
func TranslateResponse(statusCode int, header http.Header, body string) error {
	err := TranslateStatus(statusCode, body)
	if rateLimit, ok := err.(*RateLimitError); ok {
		rateLimit.RetryAfter = parseRetryAfter(header)
	}
	return err
}

func parseRetryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		return time.Until(t)
	}
	return 0
}
