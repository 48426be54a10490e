package entity

// Score is a submitted score. Rows are never updated once written.
type Score struct {
	UserID string `json:"user_id"`
	Score  int64  `json:"score"`
}
