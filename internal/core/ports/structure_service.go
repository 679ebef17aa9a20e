package ports

import (
	"context"
	"encoding/json"

	"github.com/mmp/docrepo/internal/core/domain"
)

// CreateStructureInput carries a validated structureCreation payload.
type CreateStructureInput struct {
	Name        string
	Description string
	Reference   json.RawMessage
	Fields      []domain.FieldDescriptor
}

// UpdateStructureInput carries a validated structureUpdate payload.
type UpdateStructureInput struct {
	Name        *string
	Description *string
	Reference   json.RawMessage
	Fields      []domain.FieldDescriptor
}

// StructureService defines the structure operations of the repository.
// Reads are open to everyone; writes are admin-only.
type StructureService interface {
	ListStructures(ctx context.Context) ([]*domain.Structure, error)
	GetStructure(ctx context.Context, id string) (*domain.Structure, error)
	CreateStructure(ctx context.Context, in CreateStructureInput, actorID string) (*domain.Structure, error)
	UpdateStructure(ctx context.Context, id string, in UpdateStructureInput, actorID string) (*domain.Structure, error)
	RemoveStructure(ctx context.Context, id, actorID string) error
}

// RepositoryService is the full repository facade consumed by the API.
type RepositoryService interface {
	UserService
	DocumentService
	StructureService
	Bootstrap(ctx context.Context) error
}
