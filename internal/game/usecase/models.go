package usecase

const (
	MsgUnauthorized     = "Unauthorized"
	MsgScoreSaved       = "Score saved successfully"
	MsgUserRegistered   = "User registered successfully"
	MsgUserUpdated      = "User updated successfully"
	MsgMissingAuthToken = "Missing Authorization header"
)

type SubmitScoreInput struct {
	UserID string
	Score  int64
}

type RegisterInput struct {
	Email    string
	Password string
	Username string
}

type LoginInput struct {
	Email    string
	Password string
}

// UpdateExperienceInput carries the decoded body. BodyErr holds the decoding
// failure, if any; it is reported only once the caller's token checks out.
type UpdateExperienceInput struct {
	Experience *int64
	BodyErr    error
}
