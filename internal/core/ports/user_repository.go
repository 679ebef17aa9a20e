package ports

import (
	"context"

	"github.com/mmp/docrepo/internal/core/domain"
)

// UserFilter selects users. Empty fields are ignored, so the zero value
// matches every user. IDs is a "value in set" match.
type UserFilter struct {
	IDs  []string
	Name string
}

// Matches reports whether u satisfies the filter.
func (f UserFilter) Matches(u *domain.User) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, u.ID) {
		return false
	}
	if f.Name != "" && u.Name != f.Name {
		return false
	}
	return true
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Name         *string
	PasswordHash *string
	Email        *string
	IsAdmin      *bool
}

// Empty reports whether the update would change nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.PasswordHash == nil && u.Email == nil && u.IsAdmin == nil
}

// Apply merges the update into user.
func (u UserUpdate) Apply(user *domain.User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.IsAdmin != nil {
		user.IsAdmin = *u.IsAdmin
	}
}

// UserRepository is the entity store for users. Name is unique: Insert and
// Update fail with domain.ErrDuplicateKey instead of violating it, and the
// check is atomic with the write.
type UserRepository interface {
	Count(ctx context.Context, filter UserFilter) (int64, error)
	// Insert stores user and returns it with its assigned ID and timestamps.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	// Find returns matching users, or an empty slice when none match.
	Find(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	// Update returns the number of users updated (0 or 1).
	Update(ctx context.Context, id string, update UserUpdate) (int64, error)
	Remove(ctx context.Context, filter UserFilter) (int64, error)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
