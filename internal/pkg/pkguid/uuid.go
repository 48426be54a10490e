package pkguid

import "github.com/google/uuid"

// UUID generates time-ordered UUIDv7 strings. Correlation ids and local user
// ids use it.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate falls back to a random v4 id if the v7 clock read fails.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
