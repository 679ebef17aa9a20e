package ports

import (
	"context"

	"github.com/mmp/docrepo/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	// List returns the most recent events first, at most limit of them.
	List(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}
