package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/permission"
	"github.com/mmp/docrepo/internal/core/ports"
	"github.com/mmp/docrepo/internal/pkg/metrics"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

type auditService struct {
	repo  ports.AuditRepository
	users ports.UserRepository
	log   zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(repo ports.AuditRepository, users ports.UserRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, users: users, log: log}
}

// Process persists a single audit event.
func (s *auditService) Process(ctx context.Context, event domain.AuditEvent) error {
	if err := s.repo.Insert(ctx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("process audit event: %w", err)
	}
	metrics.AuditEventsTotal.WithLabelValues("stored").Inc()

	s.log.Debug().
		Str("actor_id", event.ActorID).
		Str("action", event.Action).
		Str("kind", event.Kind).
		Str("outcome", event.Outcome).
		Msg("audit event stored")
	return nil
}

// ListEvents returns recent audit events to an admin.
func (s *auditService) ListEvents(ctx context.Context, actorID string, limit int) ([]*domain.AuditEvent, error) {
	var actor *domain.User
	if actorID != "" {
		users, err := s.users.Find(ctx, ports.UserFilter{IDs: []string{actorID}})
		if err != nil {
			return nil, fmt.Errorf("resolve actor: %w", err)
		}
		if len(users) > 0 {
			actor = users[0]
		}
	}
	if err := permission.Authorize(actor, permission.Read, permission.Target{Kind: permission.KindAudit}); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.repo.List(ctx, limit)
}
