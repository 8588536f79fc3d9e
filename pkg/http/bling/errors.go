package bling

import (
	"fmt"

	"github.com/vpnda/bling-margin/pkg/models"
)

// CredentialError is returned when no usable access token could be obtained
// for an account. No request is sent in that case.
type CredentialError struct {
	Account models.AccountID
	Err     error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("failed to get token for account %s: %v", e.Account, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// APIError is a non-retryable upstream response (any non-2xx other than 429
// and 5xx).
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bling api error %d: %s", e.StatusCode, e.Body)
}

// RetryExhaustedError reports that every attempt ended in a retryable status.
type RetryExhaustedError struct {
	LastStatus  int
	Attempts    int
	MaxAttempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("bling api error %d (attempt %d/%d)", e.LastStatus, e.Attempts, e.MaxAttempts)
}
