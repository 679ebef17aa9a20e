package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// DocumentRepository implements ports.DocumentRepository on the documents
// collection. Content is stored as its JSON text.
type DocumentRepository struct {
	col *mongo.Collection
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

func NewDocumentRepository(db *mongo.Database) *DocumentRepository {
	return &DocumentRepository{col: db.Collection(collectionDocuments)}
}

type mongoDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Owner       string             `bson:"owner"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Type        int                `bson:"type"`
	SubType     int                `bson:"sub_type"`
	Content     string             `bson:"content,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (md mongoDocument) toDomain() *domain.Document {
	return &domain.Document{
		ID:          md.ID.Hex(),
		Owner:       md.Owner,
		Title:       md.Title,
		Description: md.Description,
		Type:        md.Type,
		SubType:     md.SubType,
		Content:     stringToRaw(md.Content),
		CreatedAt:   md.CreatedAt,
		UpdatedAt:   md.UpdatedAt,
	}
}

func (r *DocumentRepository) Count(ctx context.Context, filter ports.DocumentFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, documentFilter(filter))
	return n, storageError("count documents", err)
}

func (r *DocumentRepository) Insert(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := mongoDocument{
		ID:          primitive.NewObjectID(),
		Owner:       d.Owner,
		Title:       d.Title,
		Description: d.Description,
		Type:        d.Type,
		SubType:     d.SubType,
		Content:     rawToString(d.Content),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, storageError("insert document", err)
	}
	return doc.toDomain(), nil
}

func (r *DocumentRepository) Find(ctx context.Context, filter ports.DocumentFilter) ([]*domain.Document, error) {
	docs, err := findAll[mongoDocument](ctx, r.col, documentFilter(filter), byID())
	if err != nil {
		return nil, storageError("find documents", err)
	}
	out := make([]*domain.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Update refuses any update that names an owner, even the current one.
func (r *DocumentRepository) Update(ctx context.Context, id string, update ports.DocumentUpdate) (int64, error) {
	if update.Owner != nil {
		return 0, fmt.Errorf("document %s: %w: owner", id, domain.ErrImmutableField)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": idsFilter([]string{id})}, documentUpdate(update, time.Now().UTC()))
	if err != nil {
		return 0, storageError("update document", err)
	}
	return res.MatchedCount, nil
}

func (r *DocumentRepository) Remove(ctx context.Context, filter ports.DocumentFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, documentFilter(filter))
	if err != nil {
		return 0, storageError("remove documents", err)
	}
	return res.DeletedCount, nil
}

func documentFilter(f ports.DocumentFilter) bson.M {
	filter := bson.M{}
	if len(f.IDs) > 0 {
		filter["_id"] = idsFilter(f.IDs)
	}
	if len(f.Owners) > 0 {
		filter["owner"] = bson.M{"$in": f.Owners}
	}
	if f.Title != "" {
		filter["title"] = f.Title
	}
	if f.Type != nil {
		filter["type"] = *f.Type
	}
	if f.SubType != nil {
		filter["sub_type"] = *f.SubType
	}
	return filter
}

func documentUpdate(u ports.DocumentUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Type != nil {
		set["type"] = *u.Type
	}
	if u.SubType != nil {
		set["sub_type"] = *u.SubType
	}
	if u.Content != nil {
		set["content"] = rawToString(u.Content)
	}
	return bson.M{"$set": set}
}
