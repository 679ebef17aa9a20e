package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// StructureRepository stores structures in the structures collection. Names
// are unique through structures_name_index.
type StructureRepository struct {
	c *collection
}

var _ ports.StructureRepository = (*StructureRepository)(nil)

func (r *StructureRepository) Count(ctx context.Context, filter ports.StructureFilter) (int64, error) {
	structures, err := r.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(structures)), nil
}

func (r *StructureRepository) Insert(ctx context.Context, s *domain.Structure) (*domain.Structure, error) {
	rec := *s
	rec.ID = uuid.NewString()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	err := r.c.update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(structuresNameIndex)
		if idx.Get([]byte(rec.Name)) != nil {
			return fmt.Errorf("structure %q: %w", rec.Name, domain.ErrDuplicateKey)
		}
		if err := putJSON(tx.Bucket(structuresBucket), []byte(rec.ID), &rec); err != nil {
			return err
		}
		return idx.Put([]byte(rec.Name), []byte(rec.ID))
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *StructureRepository) Find(ctx context.Context, filter ports.StructureFilter) ([]*domain.Structure, error) {
	var structures []*domain.Structure
	err := r.c.view(func(tx *bolt.Tx) error {
		var err error
		structures, err = findStructures(tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return structures, nil
}

func (r *StructureRepository) Update(ctx context.Context, id string, update ports.StructureUpdate) (int64, error) {
	var n int64
	err := r.c.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(structuresBucket)
		s, err := getJSON[domain.Structure](b, []byte(id))
		if err != nil || s == nil {
			return err
		}

		idx := tx.Bucket(structuresNameIndex)
		if update.Name != nil && *update.Name != s.Name {
			if owner := idx.Get([]byte(*update.Name)); owner != nil && string(owner) != id {
				return fmt.Errorf("structure %q: %w", *update.Name, domain.ErrDuplicateKey)
			}
			if err := idx.Delete([]byte(s.Name)); err != nil {
				return err
			}
			if err := idx.Put([]byte(*update.Name), []byte(id)); err != nil {
				return err
			}
		}

		update.Apply(s)
		s.UpdatedAt = time.Now().UTC()
		if err := putJSON(b, []byte(id), s); err != nil {
			return err
		}
		n = 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *StructureRepository) Remove(ctx context.Context, filter ports.StructureFilter) (int64, error) {
	var n int64
	err := r.c.update(func(tx *bolt.Tx) error {
		structures, err := findStructures(tx, filter)
		if err != nil {
			return err
		}
		b, idx := tx.Bucket(structuresBucket), tx.Bucket(structuresNameIndex)
		for _, s := range structures {
			if err := b.Delete([]byte(s.ID)); err != nil {
				return err
			}
			if err := idx.Delete([]byte(s.Name)); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func findStructures(tx *bolt.Tx, filter ports.StructureFilter) ([]*domain.Structure, error) {
	b := tx.Bucket(structuresBucket)
	switch {
	case len(filter.IDs) > 0:
		return lookup(b, filter.IDs, filter.Matches)
	case filter.Name != "":
		id := tx.Bucket(structuresNameIndex).Get([]byte(filter.Name))
		if id == nil {
			return []*domain.Structure{}, nil
		}
		return lookup(b, []string{string(id)}, filter.Matches)
	default:
		return scan[domain.Structure](b, nil)
	}
}
