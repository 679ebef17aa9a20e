package ports

import (
	"context"

	"github.com/mmp/docrepo/internal/core/domain"
)

// CreateUserInput carries a validated userCreation payload.
type CreateUserInput struct {
	Name     string
	Password string
	Email    string
	IsAdmin  bool
}

// UpdateUserInput carries a validated userUpdate payload; nil fields are kept.
type UpdateUserInput struct {
	Name     *string
	Password *string
	Email    *string
	IsAdmin  *bool
}

// UserService defines the user operations of the repository.
type UserService interface {
	ListUsers(ctx context.Context, actorID string) ([]*domain.User, error)
	GetUser(ctx context.Context, id, actorID string) (*domain.User, error)
	// GetUserByName is not access-controlled; login checks credentials after it.
	GetUserByName(ctx context.Context, name string) (*domain.User, error)
	// CreateUser is public. actorID may be empty; it is only consulted when the
	// new user would be an admin.
	CreateUser(ctx context.Context, in CreateUserInput, actorID string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput, actorID string) (*domain.User, error)
	RemoveUser(ctx context.Context, id, actorID string) error
}
