package domain

import "time"

// Audit outcomes.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeFailed  = "failed"
)

// AuditEvent records a single decision taken by the repository on behalf of
// an actor: a successful mutation, a permission denial, or a failed write.
type AuditEvent struct {
	ID       string    `json:"id"`
	ActorID  string    `json:"actorId"`
	Action   string    `json:"action"`
	Kind     string    `json:"kind"`
	TargetID string    `json:"targetId,omitempty"`
	Outcome  string    `json:"outcome"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}
