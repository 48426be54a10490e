package entity

import "encoding/json"

// Credentials are the email and password pair used by sign-up and sign-in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is an authenticated account as reported by the backend.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is the result of a password sign-in. Both parts are kept as the
// backend produced them so they can be returned to the client untouched.
type AuthSession struct {
	User    json.RawMessage
	Session json.RawMessage
}
