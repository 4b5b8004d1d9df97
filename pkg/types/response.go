// Package types defines the JSON envelopes every API response uses. Handlers
// never write bare payloads; successes sit under "data" and failures under
// "error" so clients can branch on shape alone.
package types

// SuccessEnvelope wraps any successful response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Code is a stable machine-readable
// string; Details carries field-level validation errors when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for failed responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
