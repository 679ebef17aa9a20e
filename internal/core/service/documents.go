package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/permission"
	"github.com/mmp/docrepo/internal/core/ports"
)

// ListDocuments returns the documents visible to the actor: all of them for an
// admin, the actor's own otherwise. Asking for another owner's documents as a
// non-admin is a denial, not an empty result.
func (r *Repository) ListDocuments(ctx context.Context, q ports.DocumentQuery, actorID string) (docs []*domain.Document, err error) {
	defer observe("document", "list", &err)

	actor, err := r.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	owner := q.Owner
	if owner == "" && actor != nil && !actor.IsAdmin {
		owner = actor.ID
	}
	if err := r.authorize(actor, actorID, permission.Read, permission.Target{Kind: permission.KindDocument, Owner: ownerOrSelf(owner, actor)}); err != nil {
		return nil, err
	}

	filter := ports.DocumentFilter{Title: q.Title, Type: q.Type, SubType: q.SubType}
	if owner != "" {
		filter.Owners = []string{owner}
	}
	return r.documents.Find(ctx, filter)
}

// GetDocument returns a document to its owner or an admin.
func (r *Repository) GetDocument(ctx context.Context, id, actorID string) (doc *domain.Document, err error) {
	defer observe("document", "read", &err)

	doc, err = r.accessDocument(ctx, id, actorID, permission.Read)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateDocument stores a new document owned by the actor.
func (r *Repository) CreateDocument(ctx context.Context, in ports.CreateDocumentInput, actorID string) (doc *domain.Document, err error) {
	defer observe("document", "create", &err)

	// The owner must still exist when the insert lands.
	unlock := r.owners.Lock(actorID)
	defer unlock()

	actor, err := r.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(actor, actorID, permission.Create, permission.Target{Kind: permission.KindDocument}); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("create document: %w: title is required", domain.ErrValidation)
	}
	if err := validContent(in.Content); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	doc, err = r.documents.Insert(ctx, &domain.Document{
		Owner:       actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		SubType:     in.SubType,
		Content:     in.Content,
	})
	if err != nil {
		r.record(actorID, permission.Create, permission.KindDocument, "", err)
		return nil, fmt.Errorf("create document: %w", err)
	}

	r.record(actorID, permission.Create, permission.KindDocument, doc.ID, nil)
	r.log.Info().Str("document_id", doc.ID).Str("owner", doc.Owner).Msg("document created")
	return doc, nil
}

// UpdateDocument applies a partial update. The owner can never be changed:
// an update carrying an owner fails with domain.ErrImmutableField and leaves
// the document as it was.
func (r *Repository) UpdateDocument(ctx context.Context, id string, in ports.UpdateDocumentInput, actorID string) (doc *domain.Document, err error) {
	defer observe("document", "update", &err)

	current, err := r.accessDocument(ctx, id, actorID, permission.Update)
	if err != nil {
		return nil, err
	}

	update := ports.DocumentUpdate{
		Description: in.Description,
		Type:        in.Type,
		SubType:     in.SubType,
		Content:     in.Content,
		Owner:       in.Owner,
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("update document: %w: title is required", domain.ErrValidation)
		}
		update.Title = in.Title
	}
	if err := validContent(in.Content); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if update.Empty() {
		return current, nil
	}

	n, err := r.documents.Update(ctx, id, update)
	if err != nil {
		r.record(actorID, permission.Update, permission.KindDocument, id, err)
		return nil, fmt.Errorf("update document: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	r.record(actorID, permission.Update, permission.KindDocument, id, nil)
	return r.documentByID(ctx, id)
}

// RemoveDocument deletes a document on behalf of its owner or an admin.
func (r *Repository) RemoveDocument(ctx context.Context, id, actorID string) (err error) {
	defer observe("document", "remove", &err)

	if _, err := r.accessDocument(ctx, id, actorID, permission.Remove); err != nil {
		return err
	}

	n, err := r.documents.Remove(ctx, ports.DocumentFilter{IDs: []string{id}})
	if err != nil {
		r.record(actorID, permission.Remove, permission.KindDocument, id, err)
		return fmt.Errorf("remove document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	r.record(actorID, permission.Remove, permission.KindDocument, id, nil)
	r.log.Info().Str("document_id", id).Str("actor_id", actorID).Msg("document removed")
	return nil
}

// accessDocument resolves the actor, loads the document and checks action on
// it. A missing document is ErrNotFound; an existing one the actor may not
// touch is ErrForbidden.
func (r *Repository) accessDocument(ctx context.Context, id, actorID string, action permission.Action) (*domain.Document, error) {
	actor, err := r.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, r.authorize(nil, actorID, action, permission.Target{Kind: permission.KindDocument, ID: id})
	}

	doc, err := r.documentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	target := permission.Target{Kind: permission.KindDocument, ID: id, Owner: doc.Owner}
	if err := r.authorize(actor, actorID, action, target); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Repository) documentByID(ctx context.Context, id string) (*domain.Document, error) {
	docs, err := r.documents.Find(ctx, ports.DocumentFilter{IDs: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return docs[0], nil
}

// ownerOrSelf is the owner a listing is checked against: the requested one,
// or the actor itself when none was requested.
func ownerOrSelf(owner string, actor *domain.User) string {
	if owner != "" || actor == nil {
		return owner
	}
	return actor.ID
}

func validContent(content json.RawMessage) error {
	if content != nil && !json.Valid(content) {
		return fmt.Errorf("%w: content is not valid JSON", domain.ErrValidation)
	}
	return nil
}
