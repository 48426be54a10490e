package pkgconfig

import "io"

// Config is the read-only view of application configuration.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetString(key string) string
	GetBinary(key string) []byte
	GetArray(key string) []string

	// Unmarshal decodes the subtree at key into out.
	Unmarshal(key string, out any) error

	io.Closer
}
