package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/mmp/docrepo/internal/pkg/metrics"
)

// Collection names, also used as file names and metric labels.
const (
	CollectionUsers      = "users"
	CollectionDocuments  = "documents"
	CollectionStructures = "structures"
	CollectionAudit      = "audit"
)

var (
	usersBucket         = []byte("users")
	usersNameIndex      = []byte("users_name_index")
	documentsBucket     = []byte("documents")
	structuresBucket    = []byte("structures")
	structuresNameIndex = []byte("structures_name_index")
	auditBucket         = []byte("audit_events")
)

// Store is the embedded entity store. Each collection lives in its own bbolt
// file under the data directory so it can be compacted on its own schedule.
type Store struct {
	dir         string
	log         zerolog.Logger
	collections map[string]*collection

	Users      *UserRepository
	Documents  *DocumentRepository
	Structures *StructureRepository
	Audit      *AuditRepository
}

// Open opens or creates the collection files under dir.
func Open(ctx context.Context, dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("unable to create directory %s: %w", dir, err)
	}

	s := &Store{dir: dir, log: log, collections: make(map[string]*collection)}
	specs := []struct {
		name    string
		buckets [][]byte
	}{
		{CollectionUsers, [][]byte{usersBucket, usersNameIndex}},
		{CollectionDocuments, [][]byte{documentsBucket}},
		{CollectionStructures, [][]byte{structuresBucket, structuresNameIndex}},
		{CollectionAudit, [][]byte{auditBucket}},
	}
	for _, spec := range specs {
		c, err := openCollection(spec.name, filepath.Join(dir, spec.name+".db"), spec.buckets...)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.collections[spec.name] = c
	}

	s.Users = &UserRepository{c: s.collections[CollectionUsers]}
	s.Documents = &DocumentRepository{c: s.collections[CollectionDocuments]}
	s.Structures = &StructureRepository{c: s.collections[CollectionStructures]}
	s.Audit = &AuditRepository{c: s.collections[CollectionAudit]}

	log.Info().Str("dir", dir).Msg("embedded store opened")
	return s, nil
}

// Compact rewrites one collection into a fresh file.
func (s *Store) Compact(ctx context.Context, name string) error {
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("unknown collection %q", name)
	}

	start := time.Now()
	before, after, err := c.compact()
	metrics.StoreCompactionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreCompactionsTotal.WithLabelValues(name, "error").Inc()
		s.log.Error().Err(err).Str("collection", name).Msg("compaction failed")
		return err
	}

	metrics.StoreCompactionsTotal.WithLabelValues(name, "success").Inc()
	s.log.Info().
		Str("collection", name).
		Int64("size_before", before).
		Int64("size_after", after).
		Dur("took", time.Since(start)).
		Msg("collection compacted")
	return nil
}

// Close closes every collection file.
func (s *Store) Close() error {
	var first error
	for name, c := range s.collections {
		if err := c.close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", name, err)
		}
	}
	return first
}

// Ping checks that every collection file is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	for name, c := range s.collections {
		if err := c.view(func(*bolt.Tx) error { return nil }); err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
	}
	return nil
}
