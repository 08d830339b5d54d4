package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/observability"
	"github.com/spec-kit/escalation-service/internal/policy"
	"github.com/spec-kit/escalation-service/internal/repository"
	apperrors "github.com/spec-kit/escalation-service/pkg/util"
)

// WorkflowService is the transition engine: it gates every ticket mutation
// through the permission matrix, applies the change, and appends the audit
// trail in the same atomic save. Validation failures always occur before any
// field write.
type WorkflowService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	cfg        config.WorkflowConfig
}

// WorkflowDependencies bundles collaborators for the engine.
type WorkflowDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title                  string
	Description            string
	Category               string
	Priority               domain.TicketPriority
	AssignedTo             *string
	ExpectedCompletionDate time.Time
}

// StatusUpdateInput carries the optional fields of a status update.
type StatusUpdateInput struct {
	NewStatus     *domain.TicketStatus
	CriticalValue *domain.Criticality
}

// EscalateInput carries escalation payload.
type EscalateInput struct {
	ToLevel domain.Level
	Reason  string
	Notes   *string
}

// TicketListFilter describes listing filters layered on the actor's scope.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// NewWorkflowService constructs the engine.
func NewWorkflowService(cfg config.WorkflowConfig, deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		cfg:        cfg,
	}
}

// Create opens a new ticket. Only L1 agents may create; tickets always start
// at L1 with status NEW and an initial audit entry.
func (s *WorkflowService) Create(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if decision := policy.Evaluate(actor.Role, policy.OpCreate, domain.LevelL1, domain.CriticalityNone); !decision.Allowed {
		return nil, s.denied(policy.OpCreate, actor, decision)
	}
	if !input.ExpectedCompletionDate.After(time.Now()) {
		return nil, apperrors.NewValidationError("expected completion date must be in the future", nil)
	}

	now := time.Now()
	ticket := &domain.Ticket{
		ID:                     uuid.NewString(),
		Title:                  strings.TrimSpace(input.Title),
		Description:            strings.TrimSpace(input.Description),
		Category:               strings.TrimSpace(input.Category),
		Priority:               input.Priority,
		Status:                 domain.TicketStatusNew,
		CurrentLevel:           domain.LevelL1,
		CriticalValue:          domain.CriticalityNone,
		CreatedBy:              actor.ID,
		AssignedTo:             input.AssignedTo,
		ExpectedCompletionDate: input.ExpectedCompletionDate,
		Version:                1,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	ticket.AppendActionLog(domain.ActionLog{
		Action:      "Ticket created",
		PerformedBy: actor.ID,
		PerformedAt: now,
	})

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	observability.RecordTransition(string(policy.OpCreate), "success")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// UpdateStatus changes the ticket status and, when the actor is an L2 agent,
// optionally applies a criticality. A criticality sent by any other role is
// silently dropped rather than rejected.
func (s *WorkflowService) UpdateStatus(ctx context.Context, actor domain.Actor, ticketID string, input StatusUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.loadForMutation(ctx, actor, ticketID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if input.NewStatus != nil && !domain.ValidStatus(*input.NewStatus) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *input.NewStatus})
	}

	prevStatus := ticket.Status
	var critNote string
	if input.CriticalValue != nil && actor.Role == domain.LevelL2 {
		if !domain.ValidCriticality(*input.CriticalValue) {
			return nil, apperrors.NewValidationError("invalid criticality", map[string]any{"critical_value": *input.CriticalValue})
		}
		oldValue := ticket.CriticalValue
		if err := ticket.SetCriticality(*input.CriticalValue); err != nil {
			return nil, apperrors.NewInvalidTransition(err.Error(), nil)
		}
		critNote = fmt.Sprintf("criticality %s → %s", describeCriticality(oldValue), *input.CriticalValue)
	}
	if input.NewStatus != nil {
		ticket.Status = *input.NewStatus
	}

	entry := domain.ActionLog{
		Action:         "Status updated",
		PerformedBy:    actor.ID,
		PerformedAt:    time.Now(),
		PreviousStatus: &prevStatus,
		NewStatus:      &ticket.Status,
	}
	if critNote != "" {
		entry.Details = &critNote
	}
	ticket.AppendActionLog(entry)

	if err := s.save(ctx, ticket, policy.OpUpdate); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: prevStatus,
			NewStatus: ticket.Status,
		},
	})
	return ticket, nil
}

// AssignCriticality classifies a ticket's severity. Only L2 agents may
// assign, and only while the ticket sits at L2.
func (s *WorkflowService) AssignCriticality(ctx context.Context, actor domain.Actor, ticketID string, value domain.Criticality) (*domain.Ticket, error) {
	ticket, err := s.loadForMutation(ctx, actor, ticketID, policy.OpAssignCriticality)
	if err != nil {
		return nil, err
	}
	if !domain.ValidCriticality(value) {
		return nil, apperrors.NewValidationError("invalid criticality", map[string]any{"critical_value": value})
	}

	oldValue := ticket.CriticalValue
	if err := ticket.SetCriticality(value); err != nil {
		return nil, apperrors.NewInvalidTransition(err.Error(), nil)
	}

	details := fmt.Sprintf("%s → %s", describeCriticality(oldValue), value)
	ticket.AppendActionLog(domain.ActionLog{
		Action:      "Criticality assigned",
		PerformedBy: actor.ID,
		PerformedAt: time.Now(),
		Details:     &details,
	})

	if err := s.save(ctx, ticket, policy.OpAssignCriticality); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCriticalityAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCriticalityAssignedPayload{
			OldValue: oldValue,
			NewValue: value,
		},
	})
	return ticket, nil
}

// Escalate raises the ticket one tier. The target must be the single legal
// target for the actor's role, the ticket must sit at the actor's own tier,
// and L2→L3 requires an assigned criticality other than C3. One escalation
// record and one audit entry are appended in the same save.
func (s *WorkflowService) Escalate(ctx context.Context, actor domain.Actor, ticketID string, input EscalateInput) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	decision := policy.EvaluateEscalation(actor.Role, ticket.CurrentLevel, ticket.CriticalValue, input.ToLevel)
	if !decision.Allowed {
		return nil, s.denied(policy.OpEscalate, actor, decision)
	}
	if err := s.checkResolvedLock(ticket); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, apperrors.NewValidationError("escalation reason is required", nil)
	}

	prevStatus := ticket.Status
	esc := domain.Escalation{
		FromLevel:   ticket.CurrentLevel,
		ToLevel:     input.ToLevel,
		Reason:      strings.TrimSpace(input.Reason),
		EscalatedBy: actor.ID,
		EscalatedAt: time.Now(),
		Notes:       input.Notes,
	}
	if err := ticket.ApplyEscalation(esc); err != nil {
		return nil, apperrors.NewInvalidTransition(err.Error(), nil)
	}

	details := fmt.Sprintf("%s → %s: %s", esc.FromLevel, esc.ToLevel, esc.Reason)
	ticket.AppendActionLog(domain.ActionLog{
		Action:         "Ticket escalated",
		PerformedBy:    actor.ID,
		PerformedAt:    esc.EscalatedAt,
		Details:        &details,
		PreviousStatus: &prevStatus,
		NewStatus:      &ticket.Status,
	})

	if err := s.save(ctx, ticket, policy.OpEscalate); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketEscalatedPayload{
			FromLevel: esc.FromLevel,
			ToLevel:   esc.ToLevel,
			Reason:    esc.Reason,
		},
	})
	return ticket, nil
}

// Resolve closes out a ticket. The actor's role must match the ticket's
// current level; at L3 the ticket must additionally carry C1 or C2.
func (s *WorkflowService) Resolve(ctx context.Context, actor domain.Actor, ticketID, resolution string) (*domain.Ticket, error) {
	ticket, err := s.loadForMutation(ctx, actor, ticketID, policy.OpResolve)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resolution) == "" {
		return nil, apperrors.NewValidationError("resolution is required", nil)
	}

	prevStatus := ticket.Status
	ticket.Status = domain.TicketStatusResolved
	// resolution text is recorded verbatim
	ticket.AppendActionLog(domain.ActionLog{
		Action:         "Ticket resolved",
		PerformedBy:    actor.ID,
		PerformedAt:    time.Now(),
		Details:        &resolution,
		PreviousStatus: &prevStatus,
		NewStatus:      &ticket.Status,
	})

	if err := s.save(ctx, ticket, policy.OpResolve); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketResolvedPayload{
			Level:      ticket.CurrentLevel,
			Resolution: resolution,
		},
	})
	return ticket, nil
}

// AddActionLog appends a free-form audit entry without changing status or
// level. Eligibility follows the same rule as UpdateStatus.
func (s *WorkflowService) AddActionLog(ctx context.Context, actor domain.Actor, ticketID, action string, details *string) (*domain.Ticket, error) {
	ticket, err := s.loadForMutation(ctx, actor, ticketID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(action) == "" {
		return nil, apperrors.NewValidationError("action is required", nil)
	}

	ticket.AppendActionLog(domain.ActionLog{
		Action:      strings.TrimSpace(action),
		PerformedBy: actor.ID,
		PerformedAt: time.Now(),
		Details:     details,
	})

	if err := s.save(ctx, ticket, policy.OpUpdate); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketActionLogged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketActionLoggedPayload{Action: strings.TrimSpace(action)},
	})
	return ticket, nil
}

// GetTicket fetches a single ticket when it falls inside the actor's
// visibility scope.
func (s *WorkflowService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.ScopeFor(actor).Allows(ticket) {
		return nil, apperrors.NewForbidden(policy.ReasonOutsideScope)
	}
	return ticket, nil
}

// ListTickets returns tickets inside the actor's visibility scope.
func (s *WorkflowService) ListTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		Scope:      policy.ScopeFor(actor),
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return tickets, nil
}

func (s *WorkflowService) load(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceFailure(err)
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return ticket, nil
}

// loadForMutation performs the shared front half of a transition: load,
// actor check, matrix gate, resolved-lock check.
func (s *WorkflowService) loadForMutation(ctx context.Context, actor domain.Actor, ticketID string, op policy.Operation) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	decision := policy.Evaluate(actor.Role, op, ticket.CurrentLevel, ticket.CriticalValue)
	if !decision.Allowed {
		return nil, s.denied(op, actor, decision)
	}
	if err := s.checkResolvedLock(ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *WorkflowService) checkResolvedLock(ticket *domain.Ticket) error {
	if s.cfg.LockResolved && ticket.IsResolved() {
		return apperrors.NewInvalidTransition("ticket is resolved and can no longer be modified", nil)
	}
	return nil
}

func (s *WorkflowService) save(ctx context.Context, ticket *domain.Ticket, op policy.Operation) error {
	if err := s.tickets.Save(ctx, ticket); err != nil {
		observability.RecordTransition(string(op), "failure")
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticket.ID})
		}
		return apperrors.NewPersistenceFailure(err)
	}
	observability.RecordTransition(string(op), "success")
	return nil
}

func (s *WorkflowService) denied(op policy.Operation, actor domain.Actor, decision policy.Decision) error {
	observability.RecordDenial(string(op), string(actor.Role))
	return apperrors.NewForbidden(decision.Reason)
}

func requireActor(actor domain.Actor) error {
	if actor.ID == "" {
		return apperrors.NewUnauthenticated("actor context required")
	}
	return nil
}

func (s *WorkflowService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func describeCriticality(value domain.Criticality) string {
	if !value.IsSet() {
		return "none"
	}
	return string(value)
}
