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

// userRecord is the stored form of a user. domain.User hides the password
// hash from JSON, so it is carried explicitly here.
type userRecord struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
}

func toUserRecord(u *domain.User) *userRecord {
	return &userRecord{User: *u, PasswordHash: u.PasswordHash}
}

func (r *userRecord) user() *domain.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	return &u
}

// UserRepository stores users in the users collection. Names are unique
// through the users_name_index bucket, which is read and written in the same
// transaction as the record.
type UserRepository struct {
	c *collection
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Count(ctx context.Context, filter ports.UserFilter) (int64, error) {
	users, err := r.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) (*domain.User, error) {
	rec := toUserRecord(u)
	rec.ID = uuid.NewString()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	err := r.c.update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(usersNameIndex)
		if idx.Get([]byte(rec.Name)) != nil {
			return fmt.Errorf("user %q: %w", rec.Name, domain.ErrDuplicateKey)
		}
		if err := putJSON(tx.Bucket(usersBucket), []byte(rec.ID), rec); err != nil {
			return err
		}
		return idx.Put([]byte(rec.Name), []byte(rec.ID))
	})
	if err != nil {
		return nil, err
	}
	return rec.user(), nil
}

func (r *UserRepository) Find(ctx context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	var recs []*userRecord
	err := r.c.view(func(tx *bolt.Tx) error {
		var err error
		recs, err = findUsers(tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.user())
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, update ports.UserUpdate) (int64, error) {
	var n int64
	err := r.c.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		rec, err := getJSON[userRecord](b, []byte(id))
		if err != nil || rec == nil {
			return err
		}

		idx := tx.Bucket(usersNameIndex)
		if update.Name != nil && *update.Name != rec.Name {
			if owner := idx.Get([]byte(*update.Name)); owner != nil && string(owner) != id {
				return fmt.Errorf("user %q: %w", *update.Name, domain.ErrDuplicateKey)
			}
			if err := idx.Delete([]byte(rec.Name)); err != nil {
				return err
			}
			if err := idx.Put([]byte(*update.Name), []byte(id)); err != nil {
				return err
			}
		}

		u := rec.user()
		update.Apply(u)
		u.UpdatedAt = time.Now().UTC()
		if err := putJSON(b, []byte(id), toUserRecord(u)); err != nil {
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

func (r *UserRepository) Remove(ctx context.Context, filter ports.UserFilter) (int64, error) {
	var n int64
	err := r.c.update(func(tx *bolt.Tx) error {
		recs, err := findUsers(tx, filter)
		if err != nil {
			return err
		}
		b, idx := tx.Bucket(usersBucket), tx.Bucket(usersNameIndex)
		for _, rec := range recs {
			if err := b.Delete([]byte(rec.ID)); err != nil {
				return err
			}
			if err := idx.Delete([]byte(rec.Name)); err != nil {
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

// findUsers uses the id keys or the name index when the filter allows it and
// falls back to a scan otherwise.
func findUsers(tx *bolt.Tx, filter ports.UserFilter) ([]*userRecord, error) {
	b := tx.Bucket(usersBucket)
	match := func(rec *userRecord) bool { return filter.Matches(&rec.User) }

	switch {
	case len(filter.IDs) > 0:
		return lookup(b, filter.IDs, match)
	case filter.Name != "":
		id := tx.Bucket(usersNameIndex).Get([]byte(filter.Name))
		if id == nil {
			return []*userRecord{}, nil
		}
		return lookup(b, []string{string(id)}, match)
	default:
		return scan[userRecord](b, nil)
	}
}
