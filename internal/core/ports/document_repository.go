package ports

import (
	"context"
	"encoding/json"

	"github.com/mmp/docrepo/internal/core/domain"
)

// DocumentFilter selects documents. Empty fields are ignored. IDs and Owners
// are "value in set" matches; Type and SubType match exactly when non-nil.
type DocumentFilter struct {
	IDs     []string
	Owners  []string
	Title   string
	Type    *int
	SubType *int
}

// Matches reports whether d satisfies the filter.
func (f DocumentFilter) Matches(d *domain.Document) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, d.ID) {
		return false
	}
	if len(f.Owners) > 0 && !contains(f.Owners, d.Owner) {
		return false
	}
	if f.Title != "" && d.Title != f.Title {
		return false
	}
	if f.Type != nil && d.Type != *f.Type {
		return false
	}
	if f.SubType != nil && d.SubType != *f.SubType {
		return false
	}
	return true
}

// DocumentUpdate is a partial update; nil fields are left unchanged.
//
// Owner exists so that an attempt to reassign a document can reach the store
// and be refused there: any update with a non-nil Owner fails with
// domain.ErrImmutableField and leaves the document untouched.
type DocumentUpdate struct {
	Title       *string
	Description *string
	Type        *int
	SubType     *int
	Content     json.RawMessage
	Owner       *string
}

// Empty reports whether the update would change nothing.
func (u DocumentUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Type == nil &&
		u.SubType == nil && u.Content == nil && u.Owner == nil
}

// Apply merges the mutable fields of the update into doc.
func (u DocumentUpdate) Apply(doc *domain.Document) {
	if u.Title != nil {
		doc.Title = *u.Title
	}
	if u.Description != nil {
		doc.Description = *u.Description
	}
	if u.Type != nil {
		doc.Type = *u.Type
	}
	if u.SubType != nil {
		doc.SubType = *u.SubType
	}
	if u.Content != nil {
		doc.Content = u.Content
	}
}

// DocumentRepository is the entity store for documents.
type DocumentRepository interface {
	Count(ctx context.Context, filter DocumentFilter) (int64, error)
	Insert(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	Find(ctx context.Context, filter DocumentFilter) ([]*domain.Document, error)
	Update(ctx context.Context, id string, update DocumentUpdate) (int64, error)
	Remove(ctx context.Context, filter DocumentFilter) (int64, error)
}
