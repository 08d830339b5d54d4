package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// MemoryTicketRepository is an in-memory TicketRepository used by tests and
// DSN-less development. It honors the same version-guarded Save contract as
// the postgres implementation.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

// NewMemoryTicketRepository creates an empty in-memory repository.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

// Create stores a new ticket. Copies are stored and returned so callers never
// share memory with the repository.
func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	stored := cloneTicket(ticket)
	r.tickets[ticket.ID] = stored
	return nil
}

// Save replaces the stored aggregate when the caller's version matches.
func (r *MemoryTicketRepository) Save(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Version != ticket.Version {
		return ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

// GetByID returns a copy of the stored ticket.
func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTicket(ticket), nil
}

// List applies the filter's scope and field filters in memory.
func (r *MemoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Ticket
	for _, ticket := range r.tickets {
		if !filter.Scope.Allows(ticket) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		matched = append(matched, *cloneTicket(ticket))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	clone.Escalations = append([]domain.Escalation(nil), t.Escalations...)
	clone.ActionLogs = append([]domain.ActionLog(nil), t.ActionLogs...)
	if t.AssignedTo != nil {
		assigned := *t.AssignedTo
		clone.AssignedTo = &assigned
	}
	return &clone
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(priorities []domain.TicketPriority, priority domain.TicketPriority) bool {
	for _, p := range priorities {
		if p == priority {
			return true
		}
	}
	return false
}
