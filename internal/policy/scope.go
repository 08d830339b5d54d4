package policy

import "github.com/spec-kit/escalation-service/internal/domain"

// ReasonOutsideScope denies direct retrieval of a ticket the actor's
// visibility scope excludes.
const ReasonOutsideScope = "ticket is outside the agent's visibility scope"

// Scope is the visibility predicate derived from an actor's role. Listing
// collaborators translate it into query filters; single-ticket retrieval
// applies it directly via Allows.
type Scope struct {
	// CreatedBy restricts visibility to tickets created by this actor.
	CreatedBy *string

	// Levels restricts visibility to tickets at these tiers; nil means any.
	Levels []domain.Level

	// Criticalities restricts visibility to these values; nil means any.
	Criticalities []domain.Criticality
}

// ScopeFor derives the visibility scope for an actor:
// L1 sees only its own tickets, L2 sees the L2 queue plus downstream L3
// tickets, L3 sees only L3 tickets carrying C1 or C2.
func ScopeFor(actor domain.Actor) Scope {
	switch actor.Role {
	case domain.LevelL2:
		return Scope{Levels: []domain.Level{domain.LevelL2, domain.LevelL3}}
	case domain.LevelL3:
		return Scope{
			Levels:        []domain.Level{domain.LevelL3},
			Criticalities: []domain.Criticality{domain.CriticalityC1, domain.CriticalityC2},
		}
	default:
		id := actor.ID
		return Scope{CreatedBy: &id}
	}
}

// Allows reports whether the ticket falls inside the scope.
func (s Scope) Allows(t *domain.Ticket) bool {
	if t == nil {
		return false
	}
	if s.CreatedBy != nil && t.CreatedBy != *s.CreatedBy {
		return false
	}
	if s.Levels != nil && !containsLevel(s.Levels, t.CurrentLevel) {
		return false
	}
	if s.Criticalities != nil && !containsCriticality(s.Criticalities, t.CriticalValue) {
		return false
	}
	return true
}
