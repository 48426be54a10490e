package inbound

import "encoding/json"

type SubmitScoreRequest struct {
	UserID string `json:"user_id"`
	Score  *int64 `json:"score"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Experience *int64 `json:"experience"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	User    json.RawMessage `json:"user"`
	Session json.RawMessage `json:"session"`
}
