package gservice

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrInvalidCredentials indicates the client was constructed without a
// usable credential.
var ErrInvalidCredentials = errors.New("invalid or missing credentials")

// ServiceInitError wraps a failure to build the underlying Gmail service.
type ServiceInitError struct {
	Err error
}

func (e *ServiceInitError) Error() string {
	return fmt.Sprintf("could not build gmail service: %v", e.Err)
}

func (e *ServiceInitError) Unwrap() error { return e.Err }

// UpstreamError is an API-level failure reported by Gmail. Listing failures
// surface as this type so callers can render the status and reason.
type UpstreamError struct {
	Status int
	Reason string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gmail api: %d %s", e.Status, e.Reason)
}

func upstreamError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("messages.List failed: %w", err)
	}

	reason := apiErr.Message
	if reason == "" && len(apiErr.Errors) > 0 {
		reason = apiErr.Errors[0].Reason
	}
	if reason == "" {
		reason = http.StatusText(apiErr.Code)
	}

	return &UpstreamError{Status: apiErr.Code, Reason: reason}
}
