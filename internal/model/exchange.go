// Package model defines the core conversation data types.
package model

import "time"

// Exchange is one completed turn: the raw input and the reply it produced.
type Exchange struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Input     string    `json:"input"`
	Response  string    `json:"response"`
	Category  string    `json:"category"`
}

// Categories assigned by the dispatcher itself. Rule and handler categories
// come from their own definitions.
const (
	CategoryUnknown = "unknown"
	CategoryError   = "error"
	CategoryExit    = "exit"
)

// Fact is a free-text piece of knowledge filed under a topic.
type Fact struct {
	ID          int64     `json:"id"`
	Topic       string    `json:"topic"`
	Information string    `json:"information"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}
