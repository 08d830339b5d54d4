package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew       TicketStatus = "NEW"
	TicketStatusAttending TicketStatus = "ATTENDING"
	TicketStatusCompleted TicketStatus = "COMPLETED"
	TicketStatusEscalated TicketStatus = "ESCALATED"
	TicketStatusResolved  TicketStatus = "RESOLVED"
)

// TicketPriority enumerates urgency of a ticket.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Level is the escalation tier a ticket currently sits at.
type Level string

const (
	LevelL1 Level = "L1"
	LevelL2 Level = "L2"
	LevelL3 Level = "L3"
)

// Criticality classifies severity. It is assignable only at L2 and gates
// whether a ticket may reach L3. The zero value means unassigned.
type Criticality string

const (
	CriticalityNone Criticality = ""
	CriticalityC1   Criticality = "C1"
	CriticalityC2   Criticality = "C2"
	CriticalityC3   Criticality = "C3"
)

// IsSet reports whether a criticality has been assigned.
func (c Criticality) IsSet() bool {
	return c != CriticalityNone
}

// levelRank orders escalation tiers; escalation only moves upward.
var levelRank = map[Level]int{
	LevelL1: 1,
	LevelL2: 2,
	LevelL3: 3,
}

// Ticket is the aggregate for support requests moving through escalation
// tiers. The embedded Escalations and ActionLogs sequences are append-only:
// existing entries are never edited or removed, and insertion order is the
// authoritative chronological order.
type Ticket struct {
	ID                     string
	Title                  string
	Description            string
	Category               string
	Priority               TicketPriority
	Status                 TicketStatus
	CurrentLevel           Level
	CriticalValue          Criticality
	CreatedBy              string
	AssignedTo             *string
	ExpectedCompletionDate time.Time
	Escalations            []Escalation
	ActionLogs             []ActionLog
	CreatedAt              time.Time
	UpdatedAt              time.Time

	// Version supports optimistic locking at the persistence boundary.
	Version int64
}

// IsResolved reports whether the ticket reached its terminal state.
func (t *Ticket) IsResolved() bool {
	return t.Status == TicketStatusResolved
}

// SetCriticality assigns a criticality, guarding the structural rule that a
// ticket at L3 never carries C3.
func (t *Ticket) SetCriticality(value Criticality) error {
	if t.CurrentLevel == LevelL3 && value == CriticalityC3 {
		return ErrCriticalityBarred
	}
	t.CriticalValue = value
	return nil
}

// ApplyEscalation raises the ticket to the escalation's target level and
// appends the escalation record. Levels only increase, and C3 tickets are
// structurally barred from L3.
func (t *Ticket) ApplyEscalation(esc Escalation) error {
	if levelRank[esc.ToLevel] <= levelRank[t.CurrentLevel] {
		return ErrLevelNotIncreasing
	}
	if esc.ToLevel == LevelL3 && t.CriticalValue == CriticalityC3 {
		return ErrCriticalityBarred
	}
	t.CurrentLevel = esc.ToLevel
	t.Status = TicketStatusEscalated
	t.Escalations = append(t.Escalations, esc)
	return nil
}

// AppendActionLog appends an audit entry. Appending is the only supported
// mutation of the log.
func (t *Ticket) AppendActionLog(entry ActionLog) {
	t.ActionLogs = append(t.ActionLogs, entry)
}

// ValidStatus reports enum membership for a ticket status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusAttending, TicketStatusCompleted, TicketStatusEscalated, TicketStatusResolved:
		return true
	}
	return false
}

// ValidPriority reports enum membership for a priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// ValidLevel reports enum membership for an escalation tier.
func ValidLevel(l Level) bool {
	_, ok := levelRank[l]
	return ok
}

// ValidCriticality reports enum membership for an assigned criticality.
// The unset value is not a valid assignment.
func ValidCriticality(c Criticality) bool {
	switch c {
	case CriticalityC1, CriticalityC2, CriticalityC3:
		return true
	}
	return false
}
