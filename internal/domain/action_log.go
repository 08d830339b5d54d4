package domain

import "time"

// ActionLog is an immutable audit entry recorded on every mutating operation.
// The previous/new status pair is set only when the operation changed status.
type ActionLog struct {
	Action         string        `json:"action"`
	PerformedBy    string        `json:"performed_by"`
	PerformedAt    time.Time     `json:"performed_at"`
	Details        *string       `json:"details,omitempty"`
	PreviousStatus *TicketStatus `json:"previous_status,omitempty"`
	NewStatus      *TicketStatus `json:"new_status,omitempty"`
}
