package policy

import (
	"fmt"
	"testing"

	"github.com/spec-kit/escalation-service/internal/domain"
)

func TestEvaluateCreate(t *testing.T) {
	tests := []struct {
		role       domain.Role
		allowed    bool
		wantReason string
	}{
		{role: domain.LevelL1, allowed: true},
		{role: domain.LevelL2, wantReason: ReasonOnlyL1Creates},
		{role: domain.LevelL3, wantReason: ReasonOnlyL1Creates},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			decision := Evaluate(tc.role, OpCreate, domain.LevelL1, domain.CriticalityNone)
			if decision.Allowed != tc.allowed {
				t.Fatalf("Allowed = %v, want %v", decision.Allowed, tc.allowed)
			}
			if decision.Reason != tc.wantReason {
				t.Fatalf("Reason = %q, want %q", decision.Reason, tc.wantReason)
			}
		})
	}
}

func TestEvaluateUpdate(t *testing.T) {
	tests := []struct {
		name       string
		role       domain.Role
		level      domain.Level
		crit       domain.Criticality
		allowed    bool
		wantReason string
	}{
		{name: "L1 at L1", role: domain.LevelL1, level: domain.LevelL1, allowed: true},
		{name: "L1 at L2", role: domain.LevelL1, level: domain.LevelL2, wantReason: ReasonL1UpdateScope},
		{name: "L1 at L3", role: domain.LevelL1, level: domain.LevelL3, wantReason: ReasonL1UpdateScope},
		{name: "L2 at L1", role: domain.LevelL2, level: domain.LevelL1, allowed: true},
		{name: "L2 at L2", role: domain.LevelL2, level: domain.LevelL2, allowed: true},
		{name: "L2 at L3", role: domain.LevelL2, level: domain.LevelL3, wantReason: ReasonL2UpdateScope},
		{name: "L3 at L3 with C1", role: domain.LevelL3, level: domain.LevelL3, crit: domain.CriticalityC1, allowed: true},
		{name: "L3 at L3 with C2", role: domain.LevelL3, level: domain.LevelL3, crit: domain.CriticalityC2, allowed: true},
		{name: "L3 at L3 unset", role: domain.LevelL3, level: domain.LevelL3, wantReason: ReasonL3UpdateCriticality},
		{name: "L3 at L3 with C3", role: domain.LevelL3, level: domain.LevelL3, crit: domain.CriticalityC3, wantReason: ReasonL3UpdateCriticality},
		{name: "L3 at L1", role: domain.LevelL3, level: domain.LevelL1, wantReason: ReasonL3UpdateScope},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := Evaluate(tc.role, OpUpdate, tc.level, tc.crit)
			if decision.Allowed != tc.allowed {
				t.Fatalf("Allowed = %v, want %v (reason %q)", decision.Allowed, tc.allowed, decision.Reason)
			}
			if decision.Reason != tc.wantReason {
				t.Fatalf("Reason = %q, want %q", decision.Reason, tc.wantReason)
			}
		})
	}
}

func TestEvaluateAssignCriticality(t *testing.T) {
	tests := []struct {
		name       string
		role       domain.Role
		level      domain.Level
		allowed    bool
		wantReason string
	}{
		{name: "L2 at L2", role: domain.LevelL2, level: domain.LevelL2, allowed: true},
		{name: "L2 at L1", role: domain.LevelL2, level: domain.LevelL1, wantReason: ReasonAssignAtL2},
		{name: "L2 at L3", role: domain.LevelL2, level: domain.LevelL3, wantReason: ReasonAssignAtL2},
		{name: "L1 denied", role: domain.LevelL1, level: domain.LevelL2, wantReason: ReasonOnlyL2Assigns},
		{name: "L3 denied", role: domain.LevelL3, level: domain.LevelL2, wantReason: ReasonOnlyL2Assigns},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := Evaluate(tc.role, OpAssignCriticality, tc.level, domain.CriticalityNone)
			if decision.Allowed != tc.allowed {
				t.Fatalf("Allowed = %v, want %v", decision.Allowed, tc.allowed)
			}
			if decision.Reason != tc.wantReason {
				t.Fatalf("Reason = %q, want %q", decision.Reason, tc.wantReason)
			}
		})
	}
}

func TestEvaluateEscalation(t *testing.T) {
	tests := []struct {
		name       string
		role       domain.Role
		level      domain.Level
		crit       domain.Criticality
		toLevel    domain.Level
		allowed    bool
		wantReason string
	}{
		{name: "L1 to L2", role: domain.LevelL1, level: domain.LevelL1, toLevel: domain.LevelL2, allowed: true},
		{name: "L1 to L3", role: domain.LevelL1, level: domain.LevelL1, toLevel: domain.LevelL3, wantReason: ReasonL1EscalateTarget},
		{name: "L1 ticket not at own level", role: domain.LevelL1, level: domain.LevelL2, toLevel: domain.LevelL2, wantReason: ReasonEscalateOwnLevel},
		{name: "L2 to L3 with C1", role: domain.LevelL2, level: domain.LevelL2, crit: domain.CriticalityC1, toLevel: domain.LevelL3, allowed: true},
		{name: "L2 to L3 with C2", role: domain.LevelL2, level: domain.LevelL2, crit: domain.CriticalityC2, toLevel: domain.LevelL3, allowed: true},
		{name: "L2 to L3 with C3", role: domain.LevelL2, level: domain.LevelL2, crit: domain.CriticalityC3, toLevel: domain.LevelL3, wantReason: ReasonC3Escalation},
		{name: "L2 to L3 unset", role: domain.LevelL2, level: domain.LevelL2, toLevel: domain.LevelL3, wantReason: ReasonCriticalityUnset},
		{name: "L2 to L2", role: domain.LevelL2, level: domain.LevelL2, crit: domain.CriticalityC1, toLevel: domain.LevelL2, wantReason: ReasonL2EscalateTarget},
		{name: "L2 ticket not at own level", role: domain.LevelL2, level: domain.LevelL1, crit: domain.CriticalityC1, toLevel: domain.LevelL3, wantReason: ReasonEscalateOwnLevel},
		{name: "L3 denied", role: domain.LevelL3, level: domain.LevelL3, crit: domain.CriticalityC1, toLevel: domain.LevelL3, wantReason: ReasonL3CannotEscalate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := EvaluateEscalation(tc.role, tc.level, tc.crit, tc.toLevel)
			if decision.Allowed != tc.allowed {
				t.Fatalf("Allowed = %v, want %v (reason %q)", decision.Allowed, tc.allowed, decision.Reason)
			}
			if decision.Reason != tc.wantReason {
				t.Fatalf("Reason = %q, want %q", decision.Reason, tc.wantReason)
			}
		})
	}
}

// Resolve succeeds exactly when role and level match; every combination is
// exercised and each mismatch names both role and level in the reason.
func TestEvaluateResolveAllCombinations(t *testing.T) {
	roles := []domain.Role{domain.LevelL1, domain.LevelL2, domain.LevelL3}
	levels := []domain.Level{domain.LevelL1, domain.LevelL2, domain.LevelL3}

	for _, role := range roles {
		for _, level := range levels {
			t.Run(fmt.Sprintf("role %s ticket %s", role, level), func(t *testing.T) {
				decision := Evaluate(role, OpResolve, level, domain.CriticalityC1)
				if role == level {
					if !decision.Allowed {
						t.Fatalf("resolve denied: %q", decision.Reason)
					}
					return
				}
				if decision.Allowed {
					t.Fatal("resolve allowed for mismatched role and level")
				}
				want := fmt.Sprintf("%s agents cannot resolve a ticket at level %s", role, level)
				if decision.Reason != want {
					t.Fatalf("Reason = %q, want %q", decision.Reason, want)
				}
			})
		}
	}
}

func TestEvaluateResolveL3Criticality(t *testing.T) {
	tests := []struct {
		name       string
		crit       domain.Criticality
		allowed    bool
		wantReason string
	}{
		{name: "C1", crit: domain.CriticalityC1, allowed: true},
		{name: "C2", crit: domain.CriticalityC2, allowed: true},
		{name: "C3", crit: domain.CriticalityC3, wantReason: ReasonL3ResolveCriticality},
		{name: "unset", crit: domain.CriticalityNone, wantReason: ReasonL3ResolveCriticality},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := Evaluate(domain.LevelL3, OpResolve, domain.LevelL3, tc.crit)
			if decision.Allowed != tc.allowed {
				t.Fatalf("Allowed = %v, want %v", decision.Allowed, tc.allowed)
			}
			if decision.Reason != tc.wantReason {
				t.Fatalf("Reason = %q, want %q", decision.Reason, tc.wantReason)
			}
		})
	}
}

func TestEscalationTarget(t *testing.T) {
	if target, ok := EscalationTarget(domain.LevelL1); !ok || target != domain.LevelL2 {
		t.Fatalf("EscalationTarget(L1) = %s, %v", target, ok)
	}
	if target, ok := EscalationTarget(domain.LevelL2); !ok || target != domain.LevelL3 {
		t.Fatalf("EscalationTarget(L2) = %s, %v", target, ok)
	}
	if _, ok := EscalationTarget(domain.LevelL3); ok {
		t.Fatal("EscalationTarget(L3) must report no target")
	}
}
