package backend

// Error is a failure reported by the backend. Error returns Message as-is so
// callers can surface it unchanged.
type Error struct {
	Status  int
	Code    string
	Message string

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(status int, code, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}
