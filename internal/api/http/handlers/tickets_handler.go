package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/escalation-service/internal/api/dto"
	"github.com/spec-kit/escalation-service/internal/auth"
	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/service"
	apperrors "github.com/spec-kit/escalation-service/pkg/util"
)

// Field length limits enforced at the transport boundary. The workflow
// engine below assumes syntactically valid input.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxCategoryLen    = 100
	maxReasonLen      = 500
	maxNotesLen       = 1000
	maxActionLen      = 200
	maxDetailsLen     = 1000
)

// TicketsHandler manages ticket workflow endpoints.
type TicketsHandler struct {
	service *service.WorkflowService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workflowService *service.WorkflowService) *TicketsHandler {
	return &TicketsHandler{service: workflowService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("title and description required", nil)
	}
	if len(req.Title) > maxTitleLen || len(req.Description) > maxDescriptionLen || len(req.Category) > maxCategoryLen {
		return apperrors.NewValidationError("field length exceeded", nil)
	}
	if req.Priority != "" && !domain.ValidPriority(req.Priority) {
		return apperrors.NewValidationError("priority must be LOW, MEDIUM or HIGH", nil)
	}
	expectedDate, err := time.Parse(time.RFC3339, req.ExpectedCompletionDate)
	if err != nil {
		return apperrors.NewValidationError("expected_completion_date must be RFC3339", nil)
	}
	if !expectedDate.After(time.Now()) {
		return apperrors.NewValidationError("expected_completion_date must be in the future", nil)
	}

	ticket, err := h.service.Create(c.Context(), actor, service.TicketCreateInput{
		Title:                  req.Title,
		Description:            req.Description,
		Category:               req.Category,
		Priority:               req.Priority,
		AssignedTo:             req.AssignedTo,
		ExpectedCompletionDate: expectedDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.Context(), actor, parseTicketListQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == nil && req.CriticalValue == nil {
		return apperrors.NewValidationError("status or critical_value required", nil)
	}
	if req.Status != nil && !domain.ValidStatus(*req.Status) {
		return apperrors.NewValidationError("invalid status", nil)
	}
	if req.CriticalValue != nil && !domain.ValidCriticality(*req.CriticalValue) {
		return apperrors.NewValidationError("critical_value must be C1, C2 or C3", nil)
	}

	ticket, err := h.service.UpdateStatus(c.Context(), actor, c.Params("id"), service.StatusUpdateInput{
		NewStatus:     req.Status,
		CriticalValue: req.CriticalValue,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AssignCriticality POST /tickets/:id/criticality.
func (h *TicketsHandler) AssignCriticality(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AssignCriticalityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !domain.ValidCriticality(req.CriticalValue) {
		return apperrors.NewValidationError("critical_value must be C1, C2 or C3", nil)
	}

	ticket, err := h.service.AssignCriticality(c.Context(), actor, c.Params("id"), req.CriticalValue)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Escalate POST /tickets/:id/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !domain.ValidLevel(req.ToLevel) {
		return apperrors.NewValidationError("to_level must be L1, L2 or L3", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}
	if len(req.Reason) > maxReasonLen {
		return apperrors.NewValidationError("reason length exceeded", nil)
	}
	if req.Notes != nil && len(*req.Notes) > maxNotesLen {
		return apperrors.NewValidationError("notes length exceeded", nil)
	}

	ticket, err := h.service.Escalate(c.Context(), actor, c.Params("id"), service.EscalateInput{
		ToLevel: req.ToLevel,
		Reason:  req.Reason,
		Notes:   req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Resolve POST /tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Resolution) == "" {
		return apperrors.NewValidationError("resolution required", nil)
	}

	ticket, err := h.service.Resolve(c.Context(), actor, c.Params("id"), req.Resolution)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddActionLog POST /tickets/:id/logs.
func (h *TicketsHandler) AddActionLog(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AddActionLogRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Action) == "" {
		return apperrors.NewValidationError("action required", nil)
	}
	if len(req.Action) > maxActionLen {
		return apperrors.NewValidationError("action length exceeded", nil)
	}
	if req.Details != nil && len(*req.Details) > maxDetailsLen {
		return apperrors.NewValidationError("details length exceeded", nil)
	}

	ticket, err := h.service.AddActionLog(c.Context(), actor, c.Params("id"), req.Action, req.Details)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func actorFromContext(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return domain.Actor{}, apperrors.NewUnauthenticated("agent required")
	}
	return principal.Actor(), nil
}

func parseTicketListQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Category:      ticket.Category,
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		CurrentLevel:  ticket.CurrentLevel,
		CriticalValue: ticket.CriticalValue,
		CreatedBy:     ticket.CreatedBy,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	escalations := make([]dto.EscalationResponse, 0, len(ticket.Escalations))
	for _, esc := range ticket.Escalations {
		escalations = append(escalations, dto.EscalationResponse{
			FromLevel:   esc.FromLevel,
			ToLevel:     esc.ToLevel,
			Reason:      esc.Reason,
			EscalatedBy: esc.EscalatedBy,
			EscalatedAt: esc.EscalatedAt,
			Notes:       esc.Notes,
		})
	}
	actionLogs := make([]dto.ActionLogResponse, 0, len(ticket.ActionLogs))
	for _, entry := range ticket.ActionLogs {
		actionLogs = append(actionLogs, dto.ActionLogResponse{
			Action:         entry.Action,
			PerformedBy:    entry.PerformedBy,
			PerformedAt:    entry.PerformedAt,
			Details:        entry.Details,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
		})
	}
	return dto.TicketDetailResponse{
		ID:                     ticket.ID,
		Title:                  ticket.Title,
		Description:            ticket.Description,
		Category:               ticket.Category,
		Priority:               ticket.Priority,
		Status:                 ticket.Status,
		CurrentLevel:           ticket.CurrentLevel,
		CriticalValue:          ticket.CriticalValue,
		CreatedBy:              ticket.CreatedBy,
		AssignedTo:             ticket.AssignedTo,
		ExpectedCompletionDate: ticket.ExpectedCompletionDate,
		Escalations:            escalations,
		ActionLogs:             actionLogs,
		CreatedAt:              ticket.CreatedAt,
		UpdatedAt:              ticket.UpdatedAt,
	}
}
