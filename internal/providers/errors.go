package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"craftchat/internal/models"
)

type ErrorCode string

const (
	CodeRateLimited       ErrorCode = "rate_limited"
	CodeUnavailable       ErrorCode = "unavailable"
	CodeTimeout           ErrorCode = "timeout"
	CodeNetwork           ErrorCode = "network"
	CodeServer            ErrorCode = "server_error"
	CodeAuth              ErrorCode = "auth"
	CodeBadRequest        ErrorCode = "bad_request"
	CodeNotFound          ErrorCode = "not_found"
	CodeQuota             ErrorCode = "quota"
	CodeContextTooLong    ErrorCode = "context_too_long"
	CodeMalformedResponse ErrorCode = "malformed_response"
	CodeMissingKey        ErrorCode = "missing_key"
	CodeCanceled          ErrorCode = "canceled"
	CodeUnknown           ErrorCode = "unknown"
)

// ProviderError is returned by adapters on transport or API failure.
type ProviderError struct {
	Provider   models.ProviderID `json:"provider"`
	Code       ErrorCode         `json:"code"`
	HTTPStatus int               `json:"http_status,omitempty"`
	Message    string            `json:"message"`
}

func (e *ProviderError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s provider error %d (%s): %s", e.Provider, e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("%s provider error (%s): %s", e.Provider, e.Code, e.Message)
}

// AsProviderError unwraps err into a *ProviderError when possible.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// statusError builds a ProviderError from a non-2xx HTTP response.
func statusError(provider models.ProviderID, status int, body []byte) *ProviderError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return &ProviderError{Provider: provider, Code: codeForStatus(status, msg), HTTPStatus: status, Message: msg}
}

func codeForStatus(status int, body string) ErrorCode {
	switch {
	case status == http.StatusTooManyRequests:
		if ClassifyError(errors.New(body)) == ErrorQuota {
			return CodeQuota
		}
		return CodeRateLimited
	case status == http.StatusServiceUnavailable || status == 529:
		return CodeUnavailable
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		return CodeTimeout
	case status >= 500:
		return CodeServer
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeAuth
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusBadRequest:
		if ClassifyError(errors.New(body)) == ErrorContext {
			return CodeContextTooLong
		}
		return CodeBadRequest
	default:
		return CodeUnknown
	}
}

// transportError converts a failed round trip into a ProviderError. Deadline
// expiry is reported as a timeout; caller cancellation is kept distinct.
func transportError(provider models.ProviderID, err error) *ProviderError {
	if pe, ok := AsProviderError(err); ok {
		return pe
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ProviderError{Provider: provider, Code: CodeTimeout, Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return &ProviderError{Provider: provider, Code: CodeCanceled, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ProviderError{Provider: provider, Code: CodeTimeout, Message: err.Error()}
	}
	code := CodeNetwork
	switch ClassifyError(err) {
	case ErrorRate:
		code = CodeRateLimited
	case ErrorQuota:
		code = CodeQuota
	case ErrorContext:
		code = CodeContextTooLong
	}
	return &ProviderError{Provider: provider, Code: code, Message: err.Error()}
}

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// ClassifyError buckets an arbitrary error by its message. Used for audit
// records and for errors that did not come with an HTTP status.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if pe, ok := AsProviderError(err); ok {
		switch pe.Code {
		case CodeQuota:
			return ErrorQuota
		case CodeRateLimited:
			return ErrorRate
		case CodeContextTooLong:
			return ErrorContext
		case CodeTimeout, CodeUnavailable, CodeNetwork, CodeServer:
			return ErrorTransient
		default:
			return ErrorPermanent
		}
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}
