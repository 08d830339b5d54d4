package domain

// Role is the escalation tier an agent operates at. Roles share the level
// enum: an L2 agent works the L2 queue.
type Role = Level

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	ID   string
	Role Role
}

// ValidRole reports enum membership for an agent role.
func ValidRole(r Role) bool {
	return ValidLevel(Level(r))
}
