package entity

// Tables owned by the backend that the game reads and writes.
const (
	TableUsers  = "users"
	TableScores = "scores"
	TableBosses = "bosses"
)
