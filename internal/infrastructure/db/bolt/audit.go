package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// AuditRepository stores audit events keyed by time, so the newest events
// are at the end of the bucket.
type AuditRepository struct {
	c *collection
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	id := uuid.New()
	event.ID = id.String()
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	return r.c.update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(auditBucket), auditKey(event.At, id), event)
	})
}

func (r *AuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	out := []*domain.AuditEvent{}
	err := r.c.view(func(tx *bolt.Tx) error {
		cur := tx.Bucket(auditBucket).Cursor()
		for k, v := cur.Last(); k != nil && len(out) < limit; k, v = cur.Prev() {
			var e domain.AuditEvent
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// auditKey is the big-endian timestamp followed by the event id, which keeps
// keys unique and ordered by time.
func auditKey(at time.Time, id uuid.UUID) []byte {
	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(at.UnixNano()))
	return append(key, id[:]...)
}
