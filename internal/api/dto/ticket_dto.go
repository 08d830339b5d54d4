package dto

import (
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title                  string                `json:"title"`
	Description            string                `json:"description"`
	Category               string                `json:"category"`
	Priority               domain.TicketPriority `json:"priority"`
	AssignedTo             *string               `json:"assigned_to,omitempty"`
	ExpectedCompletionDate string                `json:"expected_completion_date"`
}

// UpdateStatusRequest payload. Both fields are optional; a criticality sent
// by a non-L2 agent is ignored.
type UpdateStatusRequest struct {
	Status        *domain.TicketStatus `json:"status,omitempty"`
	CriticalValue *domain.Criticality  `json:"critical_value,omitempty"`
}

// AssignCriticalityRequest payload.
type AssignCriticalityRequest struct {
	CriticalValue domain.Criticality `json:"critical_value"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	ToLevel domain.Level `json:"to_level"`
	Reason  string       `json:"reason"`
	Notes   *string      `json:"notes,omitempty"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	Resolution string `json:"resolution"`
}

// AddActionLogRequest payload.
type AddActionLogRequest struct {
	Action  string  `json:"action"`
	Details *string `json:"details,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Category      string                `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	CurrentLevel  domain.Level          `json:"current_level"`
	CriticalValue domain.Criticality    `json:"critical_value,omitempty"`
	CreatedBy     string                `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including the audit trail.
type TicketDetailResponse struct {
	ID                     string                `json:"id"`
	Title                  string                `json:"title"`
	Description            string                `json:"description"`
	Category               string                `json:"category"`
	Priority               domain.TicketPriority `json:"priority"`
	Status                 domain.TicketStatus   `json:"status"`
	CurrentLevel           domain.Level          `json:"current_level"`
	CriticalValue          domain.Criticality    `json:"critical_value,omitempty"`
	CreatedBy              string                `json:"created_by"`
	AssignedTo             *string               `json:"assigned_to,omitempty"`
	ExpectedCompletionDate time.Time             `json:"expected_completion_date"`
	Escalations            []EscalationResponse  `json:"escalation_history"`
	ActionLogs             []ActionLogResponse   `json:"action_logs"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

// EscalationResponse represents one escalation record.
type EscalationResponse struct {
	FromLevel   domain.Level `json:"from_level"`
	ToLevel     domain.Level `json:"to_level"`
	Reason      string       `json:"reason"`
	EscalatedBy string       `json:"escalated_by"`
	EscalatedAt time.Time    `json:"escalated_at"`
	Notes       *string      `json:"notes,omitempty"`
}

// ActionLogResponse represents one audit entry.
type ActionLogResponse struct {
	Action         string               `json:"action"`
	PerformedBy    string               `json:"performed_by"`
	PerformedAt    time.Time            `json:"performed_at"`
	Details        *string              `json:"details,omitempty"`
	PreviousStatus *domain.TicketStatus `json:"previous_status,omitempty"`
	NewStatus      *domain.TicketStatus `json:"new_status,omitempty"`
}
