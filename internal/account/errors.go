package account

import (
	"errors"
	"fmt"
)

// ErrAuthRejected is returned when the cloud account service rejects the
// configured credentials. It is fatal to the run: no devices can be
// monitored without a session.
var ErrAuthRejected = errors.New("account credentials rejected")

// APIError describes a failed cloud API call.
type APIError struct {
	Endpoint   string
	StatusCode int
	Underlying error
}

func (e *APIError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("API error on %s (status %d): %v", e.Endpoint, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("API error on %s (status %d)", e.Endpoint, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Underlying
}
