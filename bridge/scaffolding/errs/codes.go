package errs

import (
	"fmt"
	"net/http"
)

// ErrCode is a machine-readable error class.
type ErrCode struct {
	value int
}

var (
	None               = ErrCode{value: 0}
	InvalidArgument    = ErrCode{value: 1}
	Unauthenticated    = ErrCode{value: 2}
	PermissionDenied   = ErrCode{value: 3}
	NotFound           = ErrCode{value: 4}
	InvalidCredentials = ErrCode{value: 5}
	AccountNotFound    = ErrCode{value: 6}
	DuplicateAccount   = ErrCode{value: 7}
	AlreadyExists      = ErrCode{value: 8}
	RateLimited        = ErrCode{value: 9}
	Internal           = ErrCode{value: 10}

	// InternalOnlyLog is logged in full but answered as a bare internal error.
	InternalOnlyLog = ErrCode{value: 11}
)

var codeNames = map[ErrCode]string{
	None:               "none",
	InvalidArgument:    "invalid_argument",
	Unauthenticated:    "unauthenticated",
	PermissionDenied:   "permission_denied",
	NotFound:           "not_found",
	InvalidCredentials: "invalid_credentials",
	AccountNotFound:    "account_not_found",
	DuplicateAccount:   "duplicate_account",
	AlreadyExists:      "already_exists",
	RateLimited:        "rate_limited",
	Internal:           "internal",
	InternalOnlyLog:    "internal",
}

var codeByName = map[string]ErrCode{}

func init() {
	for code, name := range codeNames {
		if code == InternalOnlyLog {
			continue
		}
		codeByName[name] = code
	}
}

var httpStatus = map[ErrCode]int{
	None:               http.StatusOK,
	InvalidArgument:    http.StatusBadRequest,
	Unauthenticated:    http.StatusUnauthorized,
	PermissionDenied:   http.StatusForbidden,
	NotFound:           http.StatusNotFound,
	InvalidCredentials: http.StatusUnauthorized,
	AccountNotFound:    http.StatusNotFound,
	DuplicateAccount:   http.StatusConflict,
	AlreadyExists:      http.StatusConflict,
	RateLimited:        http.StatusTooManyRequests,
	Internal:           http.StatusInternalServerError,
	InternalOnlyLog:    http.StatusInternalServerError,
}

func (c ErrCode) Value() int {
	return c.value
}

func (c ErrCode) String() string {
	return codeNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c ErrCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ErrCode) UnmarshalText(data []byte) error {
	code, ok := codeByName[string(data)]
	if !ok {
		return fmt.Errorf("unknown error code %q", string(data))
	}
	*c = code
	return nil
}

// Equal reports whether two codes are the same.
func (c ErrCode) Equal(c2 ErrCode) bool {
	return c.value == c2.value
}
