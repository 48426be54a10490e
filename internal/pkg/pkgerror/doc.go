// Package pkgerror is the error vocabulary shared by use cases and the router.
//
// An *Error carries the message shown to clients and a Code that the router
// turns into an HTTP status. Messages from the backend are kept verbatim.
package pkgerror
