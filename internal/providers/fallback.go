package providers

import (
	"context"
	"errors"
	"net/http"

	"craftchat/internal/models"
)

// ShouldFallback reports whether a failed call to original may be retried,
// once, against FallbackProvider. Client-side mistakes such as 404 or a
// canceled request are not eligible; rate limits, unavailability, timeouts,
// 5xx, and the 400/401/403 statuses that point at backend misconfiguration
// are.
func ShouldFallback(original models.ProviderID, err error) bool {
	if err == nil || original == FallbackProvider {
		return false
	}
	pe, ok := AsProviderError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return true
		}
		t := ClassifyError(err)
		return t == ErrorTransient || t == ErrorRate
	}
	switch pe.Code {
	case CodeRateLimited, CodeUnavailable, CodeTimeout, CodeNetwork, CodeServer, CodeMissingKey:
		return true
	case CodeCanceled:
		return false
	}
	switch {
	case pe.HTTPStatus >= 500:
		return true
	case pe.HTTPStatus == http.StatusTooManyRequests:
		return true
	case pe.HTTPStatus == http.StatusBadRequest,
		pe.HTTPStatus == http.StatusUnauthorized,
		pe.HTTPStatus == http.StatusForbidden:
		return true
	}
	return false
}
