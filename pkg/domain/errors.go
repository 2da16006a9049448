package domain

import "errors"

// Common domain errors
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrUnknownDomain       = errors.New("unknown specialist domain")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrUpstreamUnreachable = errors.New("upstream specialist unreachable")
)

// ErrorResponse defines the standard JSON error model returned by the HTTP
// surface. It avoids exposing internals while providing a stable
// machine-readable code.
type ErrorResponse struct {
	Code    string `json:"code"`    // Machine-readable error code (e.g., AUTHN_FAILED, UPSTREAM_UNAVAILABLE)
	Message string `json:"message"` // Human-readable message (safe for logs)
}
