package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/permission"
	"github.com/mmp/docrepo/internal/core/ports"
)

// ListUsers returns every user to an admin and only the actor otherwise.
func (r *Repository) ListUsers(ctx context.Context, actorID string) (users []*domain.User, err error) {
	defer observe("user", "list", &err)

	actor, err := r.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(actor, actorID, permission.Read, permission.Target{Kind: permission.KindUser, ID: actorID}); err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return []*domain.User{actor}, nil
	}
	return r.users.Find(ctx, ports.UserFilter{})
}

// GetUser returns a single user to itself or to an admin.
func (r *Repository) GetUser(ctx context.Context, id, actorID string) (user *domain.User, err error) {
	defer observe("user", "read", &err)

	actor, err := r.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, r.authorize(nil, actorID, permission.Read, permission.Target{Kind: permission.KindUser, ID: id})
	}
	user, err = r.userByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(actor, actorID, permission.Read, permission.Target{Kind: permission.KindUser, ID: id}); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByName looks a user up by its unique name.
func (r *Repository) GetUserByName(ctx context.Context, name string) (user *domain.User, err error) {
	defer observe("user", "read", &err)

	users, err := r.users.Find(ctx, ports.UserFilter{Name: name})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %q: %w", name, domain.ErrNotFound)
	}
	return users[0], nil
}

// CreateUser registers a new user. Anyone may create a plain user; creating
// an admin needs an admin actor. Name uniqueness is enforced by the store in
// the same step as the insert.
func (r *Repository) CreateUser(ctx context.Context, in ports.CreateUserInput, actorID string) (user *domain.User, err error) {
	defer observe("user", "create", &err)

	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("create user: %w: user must have a name", domain.ErrValidation)
	}

	if in.IsAdmin {
		actor, err := r.actor(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if err := r.authorize(actor, actorID, permission.Create, permission.Target{Kind: permission.KindUser, SetsAdmin: true}); err != nil {
			return nil, err
		}
	}

	hash, err := r.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user, err = r.users.Insert(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
	})
	if err != nil {
		r.record(actorID, permission.Create, permission.KindUser, "", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	r.record(actorID, permission.Create, permission.KindUser, user.ID, nil)
	r.log.Info().Str("user_id", user.ID).Str("name", user.Name).Bool("is_admin", user.IsAdmin).Msg("user created")
	return user, nil
}

// UpdateUser applies a partial update to a user. Only the user itself or an
// admin may update it, and only an admin may touch isAdmin.
func (r *Repository) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput, actorID string) (user *domain.User, err error) {
	defer observe("user", "update", &err)

	target := permission.Target{Kind: permission.KindUser, ID: id, SetsAdmin: in.IsAdmin != nil}

	actor, err := r.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, r.authorize(nil, actorID, permission.Update, target)
	}
	current, err := r.userByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(actor, actorID, permission.Update, target); err != nil {
		return nil, err
	}

	update := ports.UserUpdate{Email: in.Email, IsAdmin: in.IsAdmin}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("update user: %w: user must have a name", domain.ErrValidation)
		}
		update.Name = in.Name
	}
	if in.Password != nil {
		hash, err := r.hashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		update.PasswordHash = &hash
	}
	if update.Empty() {
		return current, nil
	}

	n, err := r.users.Update(ctx, id, update)
	if err != nil {
		r.record(actorID, permission.Update, permission.KindUser, id, err)
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	r.record(actorID, permission.Update, permission.KindUser, id, nil)
	r.log.Info().Str("user_id", id).Str("actor_id", actorID).Msg("user updated")
	return r.userByID(ctx, id)
}

// RemoveUser deletes a user. Only admins may remove users. What happens to
// the user's documents is governed by Options.RemovalPolicy.
func (r *Repository) RemoveUser(ctx context.Context, id, actorID string) (err error) {
	defer observe("user", "remove", &err)

	actor, err := r.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if err := r.authorize(actor, actorID, permission.Remove, permission.Target{Kind: permission.KindUser, ID: id}); err != nil {
		return err
	}

	// Hold the owner lock until the user is gone so no document can be
	// created for it in between.
	unlock := r.owners.Lock(id)
	defer unlock()

	owned := ports.DocumentFilter{Owners: []string{id}}
	switch r.opts.RemovalPolicy {
	case RemovalCascade:
		n, err := r.documents.Remove(ctx, owned)
		if err != nil {
			return fmt.Errorf("remove user documents: %w", err)
		}
		if n > 0 {
			r.log.Info().Str("user_id", id).Int64("documents", n).Msg("removed documents of user")
		}
	default:
		n, err := r.documents.Count(ctx, owned)
		if err != nil {
			return fmt.Errorf("count user documents: %w", err)
		}
		if n > 0 {
			err := fmt.Errorf("remove user %s: %w (%d)", id, domain.ErrOwnsDocuments, n)
			r.record(actorID, permission.Remove, permission.KindUser, id, err)
			return err
		}
	}

	n, err := r.users.Remove(ctx, ports.UserFilter{IDs: []string{id}})
	if err != nil {
		r.record(actorID, permission.Remove, permission.KindUser, id, err)
		return fmt.Errorf("remove user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	r.record(actorID, permission.Remove, permission.KindUser, id, nil)
	r.log.Info().Str("user_id", id).Str("actor_id", actorID).Msg("user removed")
	return nil
}

func (r *Repository) userByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := r.users.Find(ctx, ports.UserFilter{IDs: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return users[0], nil
}

// isNotFound is used by bootstrap to tell "absent" from a storage fault.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
