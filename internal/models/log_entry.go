package models

import "time"

// LogEntry is an append-only audit record of a mutation
type LogEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}
