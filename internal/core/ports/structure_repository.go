package ports

import (
	"context"
	"encoding/json"

	"github.com/mmp/docrepo/internal/core/domain"
)

// StructureFilter selects structures. Empty fields are ignored.
type StructureFilter struct {
	IDs  []string
	Name string
}

// Matches reports whether s satisfies the filter.
func (f StructureFilter) Matches(s *domain.Structure) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, s.ID) {
		return false
	}
	if f.Name != "" && s.Name != f.Name {
		return false
	}
	return true
}

// StructureUpdate is a partial update; nil fields are left unchanged.
type StructureUpdate struct {
	Name        *string
	Description *string
	Reference   json.RawMessage
	Fields      []domain.FieldDescriptor
}

// Empty reports whether the update would change nothing.
func (u StructureUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Reference == nil && u.Fields == nil
}

// Apply merges the update into s.
func (u StructureUpdate) Apply(s *domain.Structure) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Reference != nil {
		s.Reference = u.Reference
	}
	if u.Fields != nil {
		s.Fields = u.Fields
	}
}

// StructureRepository is the entity store for structures. Name is unique, with
// the same guarantees as UserRepository.
type StructureRepository interface {
	Count(ctx context.Context, filter StructureFilter) (int64, error)
	Insert(ctx context.Context, s *domain.Structure) (*domain.Structure, error)
	Find(ctx context.Context, filter StructureFilter) ([]*domain.Structure, error)
	Update(ctx context.Context, id string, update StructureUpdate) (int64, error)
	Remove(ctx context.Context, filter StructureFilter) (int64, error)
}
