package domain

import "time"

// Agent models a support agent account at one of the escalation tiers.
type Agent struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor derives the workflow actor identity for this agent.
func (a *Agent) Actor() Actor {
	return Actor{ID: a.ID, Role: a.Role}
}
