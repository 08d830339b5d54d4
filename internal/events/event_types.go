package events

import (
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated             EventType = "ticket_created"
	EventTicketStatusChanged       EventType = "ticket_status_changed"
	EventTicketCriticalityAssigned EventType = "ticket_criticality_assigned"
	EventTicketEscalated           EventType = "ticket_escalated"
	EventTicketResolved            EventType = "ticket_resolved"
	EventTicketActionLogged        EventType = "ticket_action_logged"
)

// AllEventTypes lists every event type; sinks that mirror the full stream
// subscribe to each.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketCriticalityAssigned,
	EventTicketEscalated,
	EventTicketResolved,
	EventTicketActionLogged,
}

// Event represents a domain event emitted by the workflow engine.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	TicketID  string       `json:"ticket_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketCriticalityAssignedPayload payload.
type TicketCriticalityAssignedPayload struct {
	OldValue domain.Criticality `json:"old_value"`
	NewValue domain.Criticality `json:"new_value"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	FromLevel domain.Level `json:"from_level"`
	ToLevel   domain.Level `json:"to_level"`
	Reason    string       `json:"reason"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Level      domain.Level `json:"level"`
	Resolution string       `json:"resolution"`
}

// TicketActionLoggedPayload payload.
type TicketActionLoggedPayload struct {
	Action string `json:"action"`
}
