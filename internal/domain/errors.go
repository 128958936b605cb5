package domain

import "errors"

// Sentinel errors used across service boundaries.
var (
	// ErrCallbackRejected indicates the callback answered with a 4xx or
	// 5xx status. This is a deliberate "unauthorized" decision and never
	// falls back to the default record.
	ErrCallbackRejected = errors.New("callback rejected credentials")

	// ErrBadCallbackResponse indicates the callback answered with a
	// status outside the error families but without a parseable record
	// body. Resolution falls back to the default record.
	ErrBadCallbackResponse = errors.New("callback response was not a valid record")

	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrSessionNotFound      = errors.New("session not found")
	ErrMissingProperty      = errors.New("missing required property")
	ErrRateLimited          = errors.New("rate limited")
)

// ErrorResponse is the standard JSON error envelope returned to clients.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
