package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// StructureRepository implements ports.StructureRepository on the structures
// collection.
type StructureRepository struct {
	col *mongo.Collection
}

var _ ports.StructureRepository = (*StructureRepository)(nil)

func NewStructureRepository(db *mongo.Database) *StructureRepository {
	return &StructureRepository{col: db.Collection(collectionStructures)}
}

type mongoStructure struct {
	ID          primitive.ObjectID       `bson:"_id,omitempty"`
	Name        string                   `bson:"name"`
	Description string                   `bson:"description,omitempty"`
	Reference   string                   `bson:"reference,omitempty"`
	Fields      []domain.FieldDescriptor `bson:"fields"`
	CreatedAt   time.Time                `bson:"created_at"`
	UpdatedAt   time.Time                `bson:"updated_at"`
}

func (ms mongoStructure) toDomain() *domain.Structure {
	fields := ms.Fields
	if fields == nil {
		fields = []domain.FieldDescriptor{}
	}
	return &domain.Structure{
		ID:          ms.ID.Hex(),
		Name:        ms.Name,
		Description: ms.Description,
		Reference:   stringToRaw(ms.Reference),
		Fields:      fields,
		CreatedAt:   ms.CreatedAt,
		UpdatedAt:   ms.UpdatedAt,
	}
}

func (r *StructureRepository) Count(ctx context.Context, filter ports.StructureFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, structureFilter(filter))
	return n, storageError("count structures", err)
}

func (r *StructureRepository) Insert(ctx context.Context, s *domain.Structure) (*domain.Structure, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := mongoStructure{
		ID:          primitive.NewObjectID(),
		Name:        s.Name,
		Description: s.Description,
		Reference:   rawToString(s.Reference),
		Fields:      s.Fields,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, storageError("insert structure", err)
	}
	return doc.toDomain(), nil
}

func (r *StructureRepository) Find(ctx context.Context, filter ports.StructureFilter) ([]*domain.Structure, error) {
	docs, err := findAll[mongoStructure](ctx, r.col, structureFilter(filter), byID())
	if err != nil {
		return nil, storageError("find structures", err)
	}
	out := make([]*domain.Structure, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *StructureRepository) Update(ctx context.Context, id string, update ports.StructureUpdate) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": idsFilter([]string{id})}, structureUpdate(update, time.Now().UTC()))
	if err != nil {
		return 0, storageError("update structure", err)
	}
	return res.MatchedCount, nil
}

func (r *StructureRepository) Remove(ctx context.Context, filter ports.StructureFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, structureFilter(filter))
	if err != nil {
		return 0, storageError("remove structures", err)
	}
	return res.DeletedCount, nil
}

func structureFilter(f ports.StructureFilter) bson.M {
	filter := bson.M{}
	if len(f.IDs) > 0 {
		filter["_id"] = idsFilter(f.IDs)
	}
	if f.Name != "" {
		filter["name"] = f.Name
	}
	return filter
}

func structureUpdate(u ports.StructureUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Reference != nil {
		set["reference"] = rawToString(u.Reference)
	}
	if u.Fields != nil {
		set["fields"] = u.Fields
	}
	return bson.M{"$set": set}
}
