package entity

const (
	DefaultLevel      int64 = 1
	DefaultExperience int64 = 0
)

// Profile is the game-side user record, keyed by the auth account id.
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Level      int64  `json:"level"`
	Experience int64  `json:"experience"`
}

// NewProfile returns the profile created on registration.
func NewProfile(id, username string) Profile {
	return Profile{
		ID:         id,
		Username:   username,
		Level:      DefaultLevel,
		Experience: DefaultExperience,
	}
}
