package taskclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes returned by the API.
const (
	CodeInvalidArgument    = "invalid_argument"
	CodeUnauthenticated    = "unauthenticated"
	CodePermissionDenied   = "permission_denied"
	CodeNotFound           = "not_found"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAccountNotFound    = "account_not_found"
	CodeDuplicateAccount   = "duplicate_account"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task api: status %d", e.Status)
	}
	return e.Message
}

// IsUnauthenticated reports whether err is an API rejection of the session.
func IsUnauthenticated(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == 401 || apiErr.Code == CodeUnauthenticated)
}

// IsNotFound reports whether err is an API not-found response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == 404 || apiErr.Code == CodeNotFound)
}

// IsRetryable reports whether a failed read is worth repeating. Client
// errors are final, except timeouts and rate limiting.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	switch {
	case apiErr.Status == http.StatusRequestTimeout, apiErr.Status == http.StatusTooManyRequests:
		return true
	case apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError:
		return false
	}
	return true
}

// Kind classifies an authentication failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindAccountNotFound
	KindDuplicateAccount
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAccountNotFound:
		return "account_not_found"
	case KindDuplicateAccount:
		return "duplicate_account"
	default:
		return "unknown"
	}
}

// AuthError is returned by the sign-in and sign-up calls.
type AuthError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// newAuthError classifies err by the API error code. Otherwise the message is
// matched, first on credentials/password, then "not found", then
// "already exists"/"duplicate".
func newAuthError(err error) *AuthError {
	ae := &AuthError{Kind: KindUnknown, Err: err}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ae
	}
	ae.Message = apiErr.Message

	switch apiErr.Code {
	case CodeInvalidCredentials:
		ae.Kind = KindInvalidCredentials
	case CodeAccountNotFound:
		ae.Kind = KindAccountNotFound
	case CodeDuplicateAccount:
		ae.Kind = KindDuplicateAccount
	default:
		msg := strings.ToLower(apiErr.Message)
		switch {
		case strings.Contains(msg, "credentials"), strings.Contains(msg, "password"):
			ae.Kind = KindInvalidCredentials
		case strings.Contains(msg, "not found"):
			ae.Kind = KindAccountNotFound
		case strings.Contains(msg, "already exists"), strings.Contains(msg, "duplicate"),
			strings.Contains(msg, "already registered"):
			ae.Kind = KindDuplicateAccount
		}
	}
	return ae
}
