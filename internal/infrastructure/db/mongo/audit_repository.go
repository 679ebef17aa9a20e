package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// AuditRepository implements ports.AuditRepository on the audit_events
// collection.
type AuditRepository struct {
	col *mongo.Collection
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

type mongoAuditEvent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ActorID     string             `bson:"actor_id,omitempty"`
	Action      string             `bson:"action"`
	Kind        string             `bson:"kind"`
	TargetID    string             `bson:"target_id,omitempty"`
	Outcome     string             `bson:"outcome"`
	Reason      string             `bson:"reason,omitempty"`
	At          time.Time          `bson:"at"`
	ProcessedAt time.Time          `bson:"processed_at"`
}

// Insert persists an audit event.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	doc := mongoAuditEvent{
		ID:          primitive.NewObjectID(),
		ActorID:     event.ActorID,
		Action:      event.Action,
		Kind:        event.Kind,
		TargetID:    event.TargetID,
		Outcome:     event.Outcome,
		Reason:      event.Reason,
		At:          at.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return storageError("insert audit event", err)
	}
	event.ID = doc.ID.Hex()
	return nil
}

// List returns the newest events first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	docs, err := findAll[mongoAuditEvent](ctx, r.col, bson.M{}, opts)
	if err != nil {
		return nil, storageError("list audit events", err)
	}
	out := make([]*domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.AuditEvent{
			ID:       d.ID.Hex(),
			ActorID:  d.ActorID,
			Action:   d.Action,
			Kind:     d.Kind,
			TargetID: d.TargetID,
			Outcome:  d.Outcome,
			Reason:   d.Reason,
			At:       d.At,
		})
	}
	return out, nil
}
