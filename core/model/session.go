package model

import "time"

// SessionStatus tracks whether a block is being worked or done.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "inprogress"
	SessionCompleted  SessionStatus = "completed"
)

// Session records the user working a planned block.
type Session struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	BlockID    string        `json:"block_id"`
	Status     SessionStatus `json:"status"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end,omitempty"`
	FocusScore float64       `json:"focus_score"`
}
