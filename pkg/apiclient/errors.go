package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status from device API")
	ErrDecode           = errors.New("failed to decode device API response")
	ErrRetriesExhausted = errors.New("device API retries exhausted")
	ErrEmptyDeviceID    = errors.New("empty device ID")
	errInvalidBaseURL   = errors.New("invalid base URL")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d %s", ErrUnexpectedStatus, e.Endpoint, e.Code, e.Body)
}

func (*StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}
