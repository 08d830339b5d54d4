package domain

import "time"

// Escalation is an immutable record of a level-increasing transition.
type Escalation struct {
	FromLevel   Level     `json:"from_level"`
	ToLevel     Level     `json:"to_level"`
	Reason      string    `json:"reason"`
	EscalatedBy string    `json:"escalated_by"`
	EscalatedAt time.Time `json:"escalated_at"`
	Notes       *string   `json:"notes,omitempty"`
}
