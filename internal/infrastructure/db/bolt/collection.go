package bolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmp/docrepo/internal/core/domain"
)

var errClosed = errors.New("collection is closed")

// collection is one bbolt file. Reads and writes hold the read side of mu;
// compaction holds the write side while it swaps the file.
type collection struct {
	name    string
	path    string
	buckets [][]byte

	mu sync.RWMutex
	db *bolt.DB
}

func openCollection(name, path string, buckets ...[]byte) (*collection, error) {
	c := &collection{name: name, path: path, buckets: buckets}
	if err := c.open(); err != nil {
		return nil, err
	}
	return c, nil
}

// open opens the file and creates the collection's buckets if they do not
// exist. Opening an already initialised file changes nothing.
func (c *collection) open() error {
	db, err := bolt.Open(c.path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", c.path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range c.buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return fmt.Errorf("unable to initialise %s: %w", c.path, err)
	}
	c.db = db
	return nil
}

func (c *collection) view(fn func(tx *bolt.Tx) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return storageError(c.name, errClosed)
	}
	return storageError(c.name, c.db.View(fn))
}

func (c *collection) update(fn func(tx *bolt.Tx) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return storageError(c.name, errClosed)
	}
	return storageError(c.name, c.db.Update(fn))
}

// compact rewrites the collection into a fresh file and swaps it in. It
// returns the file sizes before and after.
func (c *collection) compact() (before, after int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return 0, 0, storageError(c.name, errClosed)
	}

	if fi, err := os.Stat(c.path); err == nil {
		before = fi.Size()
	}

	tmp := c.path + ".compact"
	_ = os.Remove(tmp)
	dst, err := bolt.Open(tmp, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return 0, 0, storageError(c.name, err)
	}
	err = c.db.View(func(src *bolt.Tx) error {
		return dst.Update(func(tx *bolt.Tx) error {
			return src.ForEach(func(name []byte, b *bolt.Bucket) error {
				nb, err := tx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return copyBucket(b, nb)
			})
		})
	})
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, 0, storageError(c.name, err)
	}

	if err := c.db.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, 0, storageError(c.name, err)
	}
	c.db = nil
	if err := os.Rename(tmp, c.path); err != nil {
		// The old file is untouched; reopen it.
		if oerr := c.open(); oerr != nil {
			return 0, 0, storageError(c.name, oerr)
		}
		return 0, 0, storageError(c.name, err)
	}
	if err := c.open(); err != nil {
		return 0, 0, storageError(c.name, err)
	}

	if fi, err := os.Stat(c.path); err == nil {
		after = fi.Size()
	}
	return before, after, nil
}

func (c *collection) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func copyBucket(src, dst *bolt.Bucket) error {
	dst.FillPercent = 1.0
	return src.ForEach(func(k, v []byte) error {
		if v == nil {
			nested := src.Bucket(k)
			nb, err := dst.CreateBucketIfNotExists(k)
			if err != nil {
				return err
			}
			return copyBucket(nested, nb)
		}
		return dst.Put(k, v)
	})
}

// storageError classifies an error coming out of bbolt. Errors that already
// carry a domain classification pass through unchanged.
func storageError(name string, err error) error {
	if err == nil || domain.ErrorKind(err) != "internal" {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, name, err)
}

func getJSON[T any](b *bolt.Bucket, key []byte) (*T, error) {
	v := b.Get(key)
	if v == nil {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// scan decodes every record of b and keeps those match accepts. A nil match
// keeps everything.
func scan[T any](b *bolt.Bucket, match func(*T) bool) ([]*T, error) {
	out := []*T{}
	err := b.ForEach(func(_, v []byte) error {
		var rec T
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		if match == nil || match(&rec) {
			out = append(out, &rec)
		}
		return nil
	})
	return out, err
}

// lookup decodes the records for ids, skipping the ones that do not exist.
func lookup[T any](b *bolt.Bucket, ids []string, match func(*T) bool) ([]*T, error) {
	out := []*T{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rec, err := getJSON[T](b, []byte(id))
		if err != nil {
			return nil, err
		}
		if rec != nil && (match == nil || match(rec)) {
			out = append(out, rec)
		}
	}
	return out, nil
}
