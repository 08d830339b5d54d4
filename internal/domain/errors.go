package domain

import "errors"

// Structural invariant violations surfaced by aggregate mutators.
var (
	// ErrCriticalityBarred guards the rule that a ticket at L3 never carries C3.
	ErrCriticalityBarred = errors.New("C3 tickets cannot reach or remain at L3")

	// ErrLevelNotIncreasing rejects escalations that do not raise the tier.
	ErrLevelNotIncreasing = errors.New("escalation must increase the ticket level")
)
