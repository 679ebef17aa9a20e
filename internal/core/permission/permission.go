// Package permission decides whether an actor may perform an action on an
// entity. It holds no state: every decision is a function of the actor's
// current user record and a description of the target.
package permission

import (
	"fmt"

	"github.com/mmp/docrepo/internal/core/domain"
)

// Action is an operation an actor attempts.
type Action string

const (
	Read   Action = "read"
	Create Action = "create"
	Update Action = "update"
	Remove Action = "remove"
)

// Kind is the entity type an action targets.
type Kind string

const (
	KindUser      Kind = "user"
	KindDocument  Kind = "document"
	KindStructure Kind = "structure"
	KindAudit     Kind = "audit"
)

// Target describes the entity an action applies to.
type Target struct {
	Kind Kind
	// ID is the target entity id. For users it is compared with the actor id.
	ID string
	// Owner is the owning user id of a document.
	Owner string
	// SetsAdmin marks a user update that touches isAdmin, or a user create
	// that asks for isAdmin=true.
	SetsAdmin bool
}

// CanAccess reports whether actor may perform action on target. A nil actor
// is denied everything.
func CanAccess(actor *domain.User, action Action, target Target) bool {
	return Authorize(actor, action, target) == nil
}

// Authorize is CanAccess with a reason: it returns nil when the action is
// allowed, or an error wrapping domain.ErrForbidden that explains the denial.
//
// When a rule allows either self-access or admin access, self-access is tried
// first and admin status is the fallback; the order only picks the message.
func Authorize(actor *domain.User, action Action, target Target) error {
	if actor == nil {
		return deny("unauthenticated actor may not %s %s", action, target.Kind)
	}

	switch target.Kind {
	case KindUser:
		return authorizeUser(actor, action, target)
	case KindDocument:
		return authorizeDocument(actor, action, target)
	case KindStructure, KindAudit:
		if target.Kind == KindStructure && action == Read {
			return nil
		}
		if actor.IsAdmin {
			return nil
		}
		return deny("%s on %s requires admin", action, target.Kind)
	default:
		return deny("unknown entity kind %q", target.Kind)
	}
}

func authorizeUser(actor *domain.User, action Action, target Target) error {
	switch action {
	case Create:
		if !target.SetsAdmin || actor.IsAdmin {
			return nil
		}
		return deny("only an admin may create an admin user")
	case Remove:
		if actor.IsAdmin {
			return nil
		}
		return deny("only an admin may remove users")
	case Read, Update:
		if target.SetsAdmin {
			if actor.IsAdmin {
				return nil
			}
			return deny("only an admin may change isAdmin")
		}
		if target.ID == actor.ID {
			return nil
		}
		if actor.IsAdmin {
			return nil
		}
		return deny("user %s may not %s user %s", actor.ID, action, target.ID)
	}
	return deny("unsupported action %q on user", action)
}

func authorizeDocument(actor *domain.User, action Action, target Target) error {
	if action == Create {
		return nil
	}
	if target.Owner == actor.ID {
		return nil
	}
	if actor.IsAdmin {
		return nil
	}
	return deny("user %s is neither owner nor admin of document %s", actor.ID, target.ID)
}

func deny(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrForbidden}, args...)...)
}
