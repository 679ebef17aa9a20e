package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/permission"
	"github.com/mmp/docrepo/internal/core/ports"
)

// ListStructures returns every structure. Structures are public.
func (r *Repository) ListStructures(ctx context.Context) (structures []*domain.Structure, err error) {
	defer observe("structure", "list", &err)
	return r.structures.Find(ctx, ports.StructureFilter{})
}

// GetStructure returns one structure. Structures are public.
func (r *Repository) GetStructure(ctx context.Context, id string) (s *domain.Structure, err error) {
	defer observe("structure", "read", &err)
	return r.structureByID(ctx, id)
}

// CreateStructure stores a new structure. Admin only.
func (r *Repository) CreateStructure(ctx context.Context, in ports.CreateStructureInput, actorID string) (s *domain.Structure, err error) {
	defer observe("structure", "create", &err)

	if err := r.requireStructureWrite(ctx, actorID, permission.Create, ""); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("create structure: %w: name is required", domain.ErrValidation)
	}
	if err := validFields(in.Fields); err != nil {
		return nil, fmt.Errorf("create structure: %w", err)
	}
	if err := validContent(in.Reference); err != nil {
		return nil, fmt.Errorf("create structure: %w", err)
	}

	fields := in.Fields
	if fields == nil {
		fields = []domain.FieldDescriptor{}
	}
	s, err = r.structures.Insert(ctx, &domain.Structure{
		Name:        in.Name,
		Description: in.Description,
		Reference:   in.Reference,
		Fields:      fields,
	})
	if err != nil {
		r.record(actorID, permission.Create, permission.KindStructure, "", err)
		return nil, fmt.Errorf("create structure: %w", err)
	}

	r.record(actorID, permission.Create, permission.KindStructure, s.ID, nil)
	r.log.Info().Str("structure_id", s.ID).Str("name", s.Name).Msg("structure created")
	return s, nil
}

// UpdateStructure applies a partial update. Admin only.
func (r *Repository) UpdateStructure(ctx context.Context, id string, in ports.UpdateStructureInput, actorID string) (s *domain.Structure, err error) {
	defer observe("structure", "update", &err)

	if err := r.requireStructureWrite(ctx, actorID, permission.Update, id); err != nil {
		return nil, err
	}
	current, err := r.structureByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := ports.StructureUpdate{
		Description: in.Description,
		Reference:   in.Reference,
		Fields:      in.Fields,
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("update structure: %w: name is required", domain.ErrValidation)
		}
		update.Name = in.Name
	}
	if err := validFields(in.Fields); err != nil {
		return nil, fmt.Errorf("update structure: %w", err)
	}
	if err := validContent(in.Reference); err != nil {
		return nil, fmt.Errorf("update structure: %w", err)
	}
	if update.Empty() {
		return current, nil
	}

	n, err := r.structures.Update(ctx, id, update)
	if err != nil {
		r.record(actorID, permission.Update, permission.KindStructure, id, err)
		return nil, fmt.Errorf("update structure: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("structure %s: %w", id, domain.ErrNotFound)
	}

	r.record(actorID, permission.Update, permission.KindStructure, id, nil)
	return r.structureByID(ctx, id)
}

// RemoveStructure deletes a structure. Admin only.
func (r *Repository) RemoveStructure(ctx context.Context, id, actorID string) (err error) {
	defer observe("structure", "remove", &err)

	if err := r.requireStructureWrite(ctx, actorID, permission.Remove, id); err != nil {
		return err
	}

	n, err := r.structures.Remove(ctx, ports.StructureFilter{IDs: []string{id}})
	if err != nil {
		r.record(actorID, permission.Remove, permission.KindStructure, id, err)
		return fmt.Errorf("remove structure: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("structure %s: %w", id, domain.ErrNotFound)
	}

	r.record(actorID, permission.Remove, permission.KindStructure, id, nil)
	r.log.Info().Str("structure_id", id).Str("actor_id", actorID).Msg("structure removed")
	return nil
}

// requireStructureWrite checks a structure write. The rule does not depend on
// the target, so it runs before the target is loaded.
func (r *Repository) requireStructureWrite(ctx context.Context, actorID string, action permission.Action, id string) error {
	actor, err := r.actor(ctx, actorID)
	if err != nil {
		return err
	}
	return r.authorize(actor, actorID, action, permission.Target{Kind: permission.KindStructure, ID: id})
}

func (r *Repository) structureByID(ctx context.Context, id string) (*domain.Structure, error) {
	structures, err := r.structures.Find(ctx, ports.StructureFilter{IDs: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(structures) == 0 {
		return nil, fmt.Errorf("structure %s: %w", id, domain.ErrNotFound)
	}
	return structures[0], nil
}

func validFields(fields []domain.FieldDescriptor) error {
	for i, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: fields[%d] must have a name", domain.ErrValidation, i)
		}
	}
	return nil
}
