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

// DocumentRepository stores documents in the documents collection.
type DocumentRepository struct {
	c *collection
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

func (r *DocumentRepository) Count(ctx context.Context, filter ports.DocumentFilter) (int64, error) {
	docs, err := r.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (r *DocumentRepository) Insert(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	doc := *d
	doc.ID = uuid.NewString()
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	err := r.c.update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(documentsBucket), []byte(doc.ID), &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Find(ctx context.Context, filter ports.DocumentFilter) ([]*domain.Document, error) {
	var docs []*domain.Document
	err := r.c.view(func(tx *bolt.Tx) error {
		var err error
		docs, err = findDocuments(tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Update refuses any update that names an owner, even the current one.
func (r *DocumentRepository) Update(ctx context.Context, id string, update ports.DocumentUpdate) (int64, error) {
	if update.Owner != nil {
		return 0, fmt.Errorf("document %s: %w: owner", id, domain.ErrImmutableField)
	}

	var n int64
	err := r.c.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(documentsBucket)
		doc, err := getJSON[domain.Document](b, []byte(id))
		if err != nil || doc == nil {
			return err
		}
		update.Apply(doc)
		doc.UpdatedAt = time.Now().UTC()
		if err := putJSON(b, []byte(id), doc); err != nil {
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

func (r *DocumentRepository) Remove(ctx context.Context, filter ports.DocumentFilter) (int64, error) {
	var n int64
	err := r.c.update(func(tx *bolt.Tx) error {
		docs, err := findDocuments(tx, filter)
		if err != nil {
			return err
		}
		b := tx.Bucket(documentsBucket)
		for _, doc := range docs {
			if err := b.Delete([]byte(doc.ID)); err != nil {
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

func findDocuments(tx *bolt.Tx, filter ports.DocumentFilter) ([]*domain.Document, error) {
	b := tx.Bucket(documentsBucket)
	if len(filter.IDs) > 0 {
		return lookup(b, filter.IDs, filter.Matches)
	}
	return scan(b, filter.Matches)
}
