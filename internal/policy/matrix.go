// Package policy holds the pure permission rules of the workflow: which role
// may perform which operation on a ticket at a given level and criticality,
// and which tickets a role may see at all. Nothing in this package touches
// storage or mutates state.
package policy

import (
	"fmt"

	"github.com/spec-kit/escalation-service/internal/domain"
)

// Operation identifies a gated workflow operation.
type Operation string

const (
	OpCreate            Operation = "create"
	OpUpdate            Operation = "update"
	OpAssignCriticality Operation = "assign_criticality"
	OpEscalate          Operation = "escalate"
	OpResolve           Operation = "resolve"
)

// Denial reasons. Each rule in the matrix denies with its own reason so
// callers can surface a precise cause.
const (
	ReasonOnlyL1Creates        = "only L1 agents can create tickets"
	ReasonL1UpdateScope        = "L1 agents can only work tickets at L1"
	ReasonL2UpdateScope        = "L2 agents can only work tickets at L1 or L2"
	ReasonL3UpdateScope        = "L3 agents can only work tickets at L3"
	ReasonL3UpdateCriticality  = "L3 updates require criticality C1 or C2"
	ReasonOnlyL2Assigns        = "only L2 agents can assign criticality"
	ReasonAssignAtL2           = "criticality can only be assigned while the ticket is at L2"
	ReasonL3CannotEscalate     = "L3 is the terminal tier and cannot escalate further"
	ReasonEscalateOwnLevel     = "agents can only escalate tickets at their own level"
	ReasonL1EscalateTarget     = "L1 can only escalate to L2"
	ReasonL2EscalateTarget     = "L2 can only escalate to L3"
	ReasonCriticalityUnset     = "criticality must be assigned before escalating to L3"
	ReasonC3Escalation         = "C3 tickets cannot be escalated to L3"
	ReasonL3ResolveCriticality = "L3 resolution requires criticality C1 or C2"
)

// Decision is the outcome of a matrix evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// resolveDenial names both the role and the ticket level in the message.
func resolveDenial(role domain.Role, level domain.Level) string {
	return fmt.Sprintf("%s agents cannot resolve a ticket at level %s", role, level)
}

// opRule is one cell of the matrix: what a single role may do for a single
// operation, and the reason given when each check fails.
type opRule struct {
	// roleDenied categorically denies the role when non-empty.
	roleDenied string

	// levels the ticket must currently sit at; nil means any level.
	levels    []domain.Level
	levelDeny func(domain.Role, domain.Level) string

	// crits the ticket's criticality must belong to; nil means any value.
	crits     []domain.Criticality
	critDeny  string
	unsetDeny string

	// escalateTo is the only legal escalation target for the role.
	escalateTo domain.Level
	targetDeny string
}

func constReason(reason string) func(domain.Role, domain.Level) string {
	return func(domain.Role, domain.Level) string { return reason }
}

// matrix maps (operation, role) to its rule. Absent roles are treated as
// denied without a specific reason; every cell below is explicit.
var matrix = map[Operation]map[domain.Role]opRule{
	OpCreate: {
		domain.LevelL1: {},
		domain.LevelL2: {roleDenied: ReasonOnlyL1Creates},
		domain.LevelL3: {roleDenied: ReasonOnlyL1Creates},
	},
	OpUpdate: {
		domain.LevelL1: {
			levels:    []domain.Level{domain.LevelL1},
			levelDeny: constReason(ReasonL1UpdateScope),
		},
		domain.LevelL2: {
			levels:    []domain.Level{domain.LevelL1, domain.LevelL2},
			levelDeny: constReason(ReasonL2UpdateScope),
		},
		domain.LevelL3: {
			levels:    []domain.Level{domain.LevelL3},
			levelDeny: constReason(ReasonL3UpdateScope),
			crits:     []domain.Criticality{domain.CriticalityC1, domain.CriticalityC2},
			critDeny:  ReasonL3UpdateCriticality,
			unsetDeny: ReasonL3UpdateCriticality,
		},
	},
	OpAssignCriticality: {
		domain.LevelL1: {roleDenied: ReasonOnlyL2Assigns},
		domain.LevelL2: {
			levels:    []domain.Level{domain.LevelL2},
			levelDeny: constReason(ReasonAssignAtL2),
		},
		domain.LevelL3: {roleDenied: ReasonOnlyL2Assigns},
	},
	OpEscalate: {
		domain.LevelL1: {
			levels:     []domain.Level{domain.LevelL1},
			levelDeny:  constReason(ReasonEscalateOwnLevel),
			escalateTo: domain.LevelL2,
			targetDeny: ReasonL1EscalateTarget,
		},
		domain.LevelL2: {
			levels:     []domain.Level{domain.LevelL2},
			levelDeny:  constReason(ReasonEscalateOwnLevel),
			crits:      []domain.Criticality{domain.CriticalityC1, domain.CriticalityC2},
			critDeny:   ReasonC3Escalation,
			unsetDeny:  ReasonCriticalityUnset,
			escalateTo: domain.LevelL3,
			targetDeny: ReasonL2EscalateTarget,
		},
		domain.LevelL3: {roleDenied: ReasonL3CannotEscalate},
	},
	OpResolve: {
		domain.LevelL1: {
			levels:    []domain.Level{domain.LevelL1},
			levelDeny: resolveDenial,
		},
		domain.LevelL2: {
			levels:    []domain.Level{domain.LevelL2},
			levelDeny: resolveDenial,
		},
		domain.LevelL3: {
			levels:    []domain.Level{domain.LevelL3},
			levelDeny: resolveDenial,
			crits:     []domain.Criticality{domain.CriticalityC1, domain.CriticalityC2},
			critDeny:  ReasonL3ResolveCriticality,
			unsetDeny: ReasonL3ResolveCriticality,
		},
	},
}

// Evaluate decides whether role may perform op on a ticket currently at the
// given level and criticality. It is side-effect free; callers always pass
// freshly loaded ticket state.
func Evaluate(role domain.Role, op Operation, level domain.Level, crit domain.Criticality) Decision {
	rule, ok := matrix[op][role]
	if !ok {
		return deny(fmt.Sprintf("role %s may not perform %s", role, op))
	}
	return evaluateRule(rule, role, level, crit)
}

// EvaluateEscalation additionally validates the requested target level
// against the only legal target for the role.
func EvaluateEscalation(role domain.Role, level domain.Level, crit domain.Criticality, toLevel domain.Level) Decision {
	rule, ok := matrix[OpEscalate][role]
	if !ok {
		return deny(fmt.Sprintf("role %s may not perform %s", role, OpEscalate))
	}
	if rule.roleDenied != "" {
		return deny(rule.roleDenied)
	}
	if toLevel != rule.escalateTo {
		return deny(rule.targetDeny)
	}
	return evaluateRule(rule, role, level, crit)
}

// EscalationTarget returns the single level the role may escalate to.
func EscalationTarget(role domain.Role) (domain.Level, bool) {
	rule, ok := matrix[OpEscalate][role]
	if !ok || rule.roleDenied != "" {
		return "", false
	}
	return rule.escalateTo, true
}

func evaluateRule(rule opRule, role domain.Role, level domain.Level, crit domain.Criticality) Decision {
	if rule.roleDenied != "" {
		return deny(rule.roleDenied)
	}
	if rule.levels != nil && !containsLevel(rule.levels, level) {
		return deny(rule.levelDeny(role, level))
	}
	if rule.crits != nil && !containsCriticality(rule.crits, crit) {
		if !crit.IsSet() {
			return deny(rule.unsetDeny)
		}
		return deny(rule.critDeny)
	}
	return allow()
}

func containsLevel(levels []domain.Level, level domain.Level) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func containsCriticality(crits []domain.Criticality, crit domain.Criticality) bool {
	for _, c := range crits {
		if c == crit {
			return true
		}
	}
	return false
}
