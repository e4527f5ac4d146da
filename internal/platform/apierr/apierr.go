// Package apierr carries an HTTP status and a stable machine-readable code
// alongside an error, so boundary code can decide the response without
// string-matching messages.
package apierr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// BadRequest tags a malformed-request failure seen at the transport boundary,
// before any domain logic runs.
func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}
