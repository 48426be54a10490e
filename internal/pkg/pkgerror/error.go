package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound marks lookups of tables or rows that do not exist.
var ErrNotFound = errors.New("resource not found")

// Kind says which party is at fault.
type Kind int

const (
	KindInternal       Kind = iota // bug or misconfiguration in this service
	KindClientInput                // request body or headers unusable
	KindAuthentication             // credentials or token rejected
	KindBackend                    // upstream call failed
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "ERROR_KIND_INTERNAL"
	case KindClientInput:
		return "ERROR_KIND_CLIENT_INPUT"
	case KindAuthentication:
		return "ERROR_KIND_AUTHENTICATION"
	case KindBackend:
		return "ERROR_KIND_BACKEND"
	default:
		return "ERROR_KIND_UNKNOWN"
	}
}

// Code selects the HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeBadRequest
	CodeUnauthorized
	CodeNotFound
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeBadRequest:
		return "ERROR_CODE_BAD_REQUEST"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is what use cases return to the router. Msg is written to the client
// as {"error": Msg}; the wrapped error is for logs and errors.Is.
type Error struct {
	err  error
	msg  string
	kind Kind
	code Code
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.kind.String()
	}
}

func (e *Error) String() string {
	return fmt.Sprintf("kind=%s code=%s msg=%q cause=%v", e.kind, e.code, e.msg, e.err)
}

func (e *Error) Msg() string   { return e.msg }
func (e *Error) Kind() Kind    { return e.kind }
func (e *Error) Code() Code    { return e.code }
func (e *Error) Unwrap() error { return e.err }

func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewServer hides err from the client behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", kind: KindInternal, code: CodeInternal}
}

// NewInvalidFormat is returned when a request body is not the expected JSON.
func NewInvalidFormat() error {
	return &Error{msg: "invalid request body", kind: KindClientInput, code: CodeInvalidFormat}
}

// NewMissingField is returned when a required body field is absent.
func NewMissingField(field string) error {
	return &Error{msg: field + " is required", kind: KindClientInput, code: CodeBadRequest}
}

// NewCredentialsRejected wraps a sign-up or sign-in refusal. The upstream
// message reaches the client unchanged, with status 400.
func NewCredentialsRejected(err error) error {
	return &Error{err: err, msg: err.Error(), kind: KindAuthentication, code: CodeBadRequest}
}

// NewUnauthorized is a 401 carrying msg.
func NewUnauthorized(msg string) error {
	return &Error{msg: msg, kind: KindAuthentication, code: CodeUnauthorized}
}

// NewBackend wraps a failed upstream call. The upstream message reaches the
// client unchanged, with status 500.
func NewBackend(err error) error {
	return &Error{err: err, msg: err.Error(), kind: KindBackend, code: CodeInternal}
}
