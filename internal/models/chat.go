package models

import "time"

// ChatHistory is one persisted conversation turn: the user's message and the
// assistant's final answer. Saved best-effort after the response is sent.
type ChatHistory struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	Response  string    `db:"response" json:"response"`
	SessionID *string   `db:"session_id" json:"session_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}

// ChatHistoryFilter scopes transcript listing.
type ChatHistoryFilter struct {
	UserID      string
	StudentOnly bool
	Limit       int
}
