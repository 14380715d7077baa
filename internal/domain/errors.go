package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates a credential or token failure.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypeQuota indicates the subscription ledger rejected admission.
	ErrorTypeQuota ErrorType = "quota"

	// ErrorTypeUpstream indicates the completion provider failed or timed out.
	ErrorTypeUpstream ErrorType = "upstream"

	// ErrorTypeServer indicates an internal error. Details are never
	// forwarded to the client.
	ErrorTypeServer ErrorType = "server"
)

// ErrorCode is the stable, client-facing reason attached to an error.
type ErrorCode string

const (
	ErrorCodeDuplicateIdentity      ErrorCode = "duplicate_identity"
	ErrorCodeInvalidCredentials     ErrorCode = "invalid_credentials"
	ErrorCodeInvalidToken           ErrorCode = "invalid_token"
	ErrorCodeNoSubscription         ErrorCode = "no_subscription"
	ErrorCodeCycleExpired           ErrorCode = "cycle_expired"
	ErrorCodeQuotaExhausted         ErrorCode = "quota_exhausted"
	ErrorCodeUnsupportedRequestType ErrorCode = "unsupported_request_type"
	ErrorCodeUpstreamFailure        ErrorCode = "upstream_failure"
)

// APIError is the canonical error surfaced to clients. Every expected
// failure mode carries a stable code; anything else is normalized to a
// generic server error before it reaches the transport.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message"`

	// StatusCode overrides the default HTTP mapping when non-zero.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the HTTP status for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeQuota:
		return http.StatusForbidden
	case ErrorTypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsQuotaRejection reports whether the error is one of the ledger's
// admission rejections.
func (e *APIError) IsQuotaRejection() bool {
	switch e.Code {
	case ErrorCodeNoSubscription, ErrorCodeCycleExpired, ErrorCodeQuotaExhausted:
		return true
	}
	return false
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, code ErrorCode, message string) *APIError {
	return &APIError{Type: errType, Code: code, Message: message}
}

// WithStatusCode sets a specific HTTP status code.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// Convenience constructors for the gateway's error taxonomy.

// ErrInvalidRequest creates a malformed-input error.
func ErrInvalidRequest(message string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, "", message)
}

// ErrDuplicateIdentity is returned when a registration email is taken.
func ErrDuplicateIdentity() *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, ErrorCodeDuplicateIdentity, "email already registered")
}

// ErrInvalidCredentials is returned for any login failure. Unknown email and
// wrong password are deliberately indistinguishable.
func ErrInvalidCredentials() *APIError {
	return NewAPIError(ErrorTypeAuthentication, ErrorCodeInvalidCredentials, "invalid credentials")
}

// ErrInvalidToken is returned for any bearer-token verification failure.
// Forged, malformed, and expired tokens all look the same to the caller.
func ErrInvalidToken() *APIError {
	return NewAPIError(ErrorTypeAuthentication, ErrorCodeInvalidToken, "invalid token")
}

// ErrNoSubscription is returned when the account has no billing cycle.
func ErrNoSubscription() *APIError {
	return NewAPIError(ErrorTypeQuota, ErrorCodeNoSubscription, "no active subscription")
}

// ErrCycleExpired is returned once the billing window has passed.
func ErrCycleExpired() *APIError {
	return NewAPIError(ErrorTypeQuota, ErrorCodeCycleExpired, "billing cycle expired")
}

// ErrQuotaExhausted is returned once consumption reached the ceiling.
func ErrQuotaExhausted() *APIError {
	return NewAPIError(ErrorTypeQuota, ErrorCodeQuotaExhausted, "quota exceeded")
}

// ErrUnsupportedRequestType rejects non-text request types.
func ErrUnsupportedRequestType(reqType string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, ErrorCodeUnsupportedRequestType,
		fmt.Sprintf("request type %q is not supported; only text is supported", reqType))
}

// ErrUpstreamFailure wraps a completion-provider failure. The upstream
// detail stays in the message for operators; no usage is committed for it.
func ErrUpstreamFailure(message string) *APIError {
	return NewAPIError(ErrorTypeUpstream, ErrorCodeUpstreamFailure, message)
}

// ErrServer creates a generic internal error. Callers must not embed
// implementation detail in the message.
func ErrServer(message string) *APIError {
	return NewAPIError(ErrorTypeServer, "", message)
}
