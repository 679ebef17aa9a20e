package ports

import (
	"context"

	"github.com/mmp/docrepo/internal/core/domain"
)

// AuditRecorder accepts audit events for asynchronous persistence.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditService persists audit events and serves them to admins.
type AuditService interface {
	Process(ctx context.Context, event domain.AuditEvent) error
	ListEvents(ctx context.Context, actorID string, limit int) ([]*domain.AuditEvent, error)
}
