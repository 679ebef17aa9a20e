package ports

import (
	"context"
	"encoding/json"

	"github.com/mmp/docrepo/internal/core/domain"
)

// CreateDocumentInput carries a validated documentCreation payload. The owner
// is never taken from the payload; it is always the acting user.
type CreateDocumentInput struct {
	Title       string
	Description string
	Type        int
	SubType     int
	Content     json.RawMessage
}

// UpdateDocumentInput carries a validated documentUpdate payload. Owner is
// accepted only so the request can be refused.
type UpdateDocumentInput struct {
	Title       *string
	Description *string
	Type        *int
	SubType     *int
	Content     json.RawMessage
	Owner       *string
}

// DocumentQuery narrows ListDocuments. Non-admin actors are always restricted
// to their own documents regardless of Owner.
type DocumentQuery struct {
	Owner   string
	Title   string
	Type    *int
	SubType *int
}

// DocumentService defines the document operations of the repository.
type DocumentService interface {
	ListDocuments(ctx context.Context, q DocumentQuery, actorID string) ([]*domain.Document, error)
	GetDocument(ctx context.Context, id, actorID string) (*domain.Document, error)
	CreateDocument(ctx context.Context, in CreateDocumentInput, actorID string) (*domain.Document, error)
	UpdateDocument(ctx context.Context, id string, in UpdateDocumentInput, actorID string) (*domain.Document, error)
	RemoveDocument(ctx context.Context, id, actorID string) error
}
