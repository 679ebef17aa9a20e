package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/permission"
	"github.com/mmp/docrepo/internal/core/ports"
	"github.com/mmp/docrepo/internal/pkg/metrics"
)

// RemovalPolicy decides what happens to a user's documents when the user is
// removed.
type RemovalPolicy string

const (
	// RemovalRestrict refuses to remove a user who still owns documents.
	RemovalRestrict RemovalPolicy = "restrict"
	// RemovalCascade removes the user's documents before the user.
	RemovalCascade RemovalPolicy = "cascade"
)

// Options tunes the repository facade.
type Options struct {
	AdminName     string
	AdminPassword string
	RemovalPolicy RemovalPolicy
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Repository is the facade over the entity stores. Every operation resolves
// the actor from the user store, asks the permission engine, and only then
// touches storage. It keeps no state of its own.
type Repository struct {
	users      ports.UserRepository
	documents  ports.DocumentRepository
	structures ports.StructureRepository
	audit      ports.AuditRecorder
	opts       Options
	log        zerolog.Logger

	// owners serializes document creation with the removal of the owner,
	// keyed by user id.
	owners keyedMutex
}

var _ ports.RepositoryService = (*Repository)(nil)

// NewRepository wires the facade. audit may be nil.
func NewRepository(
	users ports.UserRepository,
	documents ports.DocumentRepository,
	structures ports.StructureRepository,
	audit ports.AuditRecorder,
	opts Options,
	log zerolog.Logger,
) *Repository {
	if audit == nil {
		audit = nopRecorder{}
	}
	if opts.AdminName == "" {
		opts.AdminName = "admin"
	}
	if opts.RemovalPolicy == "" {
		opts.RemovalPolicy = RemovalRestrict
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Repository{
		users:      users,
		documents:  documents,
		structures: structures,
		audit:      audit,
		opts:       opts,
		log:        log,
	}
}

// actor loads the acting user. An empty or unknown id yields a nil user, which
// the permission engine denies.
func (r *Repository) actor(ctx context.Context, actorID string) (*domain.User, error) {
	if actorID == "" {
		return nil, nil
	}
	users, err := r.users.Find(ctx, ports.UserFilter{IDs: []string{actorID}})
	if err != nil {
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// authorize asks the permission engine and records denials.
func (r *Repository) authorize(actor *domain.User, actorID string, action permission.Action, target permission.Target) error {
	err := permission.Authorize(actor, action, target)
	if err != nil {
		metrics.PermissionDenialsTotal.WithLabelValues(string(target.Kind), string(action)).Inc()
		r.record(actorID, action, target.Kind, target.ID, err)
		r.log.Warn().
			Str("actor_id", actorID).
			Str("action", string(action)).
			Str("kind", string(target.Kind)).
			Str("target_id", target.ID).
			Err(err).
			Msg("permission denied")
	}
	return err
}

// record emits an audit event for a decision. A nil err is an allowed action.
func (r *Repository) record(actorID string, action permission.Action, kind permission.Kind, targetID string, err error) {
	event := domain.AuditEvent{
		ActorID:  actorID,
		Action:   string(action),
		Kind:     string(kind),
		TargetID: targetID,
		Outcome:  domain.OutcomeAllowed,
		At:       time.Now().UTC(),
	}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrForbidden):
		event.Outcome = domain.OutcomeDenied
		event.Reason = err.Error()
	default:
		event.Outcome = domain.OutcomeFailed
		event.Reason = domain.ErrorKind(err)
	}
	r.audit.Record(event)
}

func (r *Repository) hashPassword(password string) (string, error) {
	if len(password) < domain.MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters long", domain.ErrValidation, domain.MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.opts.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", domain.ErrValidation)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// observe counts a finished operation; call it deferred with the named error.
func observe(entity, action string, err *error) {
	metrics.OperationsTotal.WithLabelValues(entity, action, domain.ErrorKind(*err)).Inc()
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.AuditEvent) {}
