package domain

import "time"

// Rating is an append-only satisfaction score left at the end of a chat.
type Rating struct {
	ID         int64     `json:"id"          db:"id"`
	ExternalID string    `json:"cedula"      db:"external_id"`
	Score      int       `json:"score"       db:"score"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}
