package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubUserRepo struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*domain.User
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Count(_ context.Context, f ports.UserFilter) (int64, error) {
	users, err := r.Find(context.Background(), f)
	return int64(len(users)), err
}

func (r *stubUserRepo) Insert(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Name == u.Name {
			return nil, fmt.Errorf("insert user: %w", domain.ErrDuplicateKey)
		}
	}
	r.seq++
	clone := *u
	clone.ID = fmt.Sprintf("user-%d", r.seq)
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) Find(_ context.Context, f ports.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := []*domain.User{}
	for _, u := range r.byID {
		if f.Matches(u) {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, upd ports.UserUpdate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return 0, nil
	}
	if upd.Name != nil {
		for _, other := range r.byID {
			if other.ID != id && other.Name == *upd.Name {
				return 0, fmt.Errorf("update user: %w", domain.ErrDuplicateKey)
			}
		}
	}
	upd.Apply(u)
	return 1, nil
}

func (r *stubUserRepo) Remove(_ context.Context, f ports.UserFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, u := range r.byID {
		if f.Matches(u) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

type stubDocumentRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Document

	// afterCount and afterRemove run once the call has finished with the
	// collection, outside the stub's lock.
	afterCount  func()
	afterRemove func()
}

func newStubDocumentRepo() *stubDocumentRepo {
	return &stubDocumentRepo{byID: make(map[string]*domain.Document)}
}

func (r *stubDocumentRepo) Count(ctx context.Context, f ports.DocumentFilter) (int64, error) {
	docs, err := r.Find(ctx, f)
	if r.afterCount != nil {
		r.afterCount()
	}
	return int64(len(docs)), err
}

func (r *stubDocumentRepo) Insert(_ context.Context, d *domain.Document) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := *d
	clone.ID = fmt.Sprintf("doc-%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubDocumentRepo) Find(_ context.Context, f ports.DocumentFilter) ([]*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Document{}
	for _, d := range r.byID {
		if f.Matches(d) {
			clone := *d
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubDocumentRepo) Update(_ context.Context, id string, upd ports.DocumentUpdate) (int64, error) {
	if upd.Owner != nil {
		return 0, fmt.Errorf("update document: %w: owner", domain.ErrImmutableField)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return 0, nil
	}
	upd.Apply(d)
	return 1, nil
}

func (r *stubDocumentRepo) Remove(_ context.Context, f ports.DocumentFilter) (int64, error) {
	r.mu.Lock()
	var n int64
	for id, d := range r.byID {
		if f.Matches(d) {
			delete(r.byID, id)
			n++
		}
	}
	r.mu.Unlock()

	if r.afterRemove != nil {
		r.afterRemove()
	}
	return n, nil
}

type stubStructureRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Structure
}

func newStubStructureRepo() *stubStructureRepo {
	return &stubStructureRepo{byID: make(map[string]*domain.Structure)}
}

func (r *stubStructureRepo) Count(ctx context.Context, f ports.StructureFilter) (int64, error) {
	s, err := r.Find(ctx, f)
	return int64(len(s)), err
}

func (r *stubStructureRepo) Insert(_ context.Context, s *domain.Structure) (*domain.Structure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Name == s.Name {
			return nil, fmt.Errorf("insert structure: %w", domain.ErrDuplicateKey)
		}
	}
	r.seq++
	clone := *s
	clone.ID = fmt.Sprintf("structure-%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubStructureRepo) Find(_ context.Context, f ports.StructureFilter) ([]*domain.Structure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Structure{}
	for _, s := range r.byID {
		if f.Matches(s) {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubStructureRepo) Update(_ context.Context, id string, upd ports.StructureUpdate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return 0, nil
	}
	upd.Apply(s)
	return 1, nil
}

func (r *stubStructureRepo) Remove(_ context.Context, f ports.StructureFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.byID {
		if f.Matches(s) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

type stubRecorder struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *stubRecorder) Record(e domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *stubRecorder) outcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind+":"+e.Action+":"+e.Outcome)
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	users      *stubUserRepo
	documents  *stubDocumentRepo
	structures *stubStructureRepo
	audit      *stubRecorder
	repo       *Repository
	adminID    string
}

func newFixture(policy RemovalPolicy) *fixture {
	f := &fixture{
		users:      newStubUserRepo(),
		documents:  newStubDocumentRepo(),
		structures: newStubStructureRepo(),
		audit:      &stubRecorder{},
	}
	f.repo = NewRepository(f.users, f.documents, f.structures, f.audit, Options{
		AdminName:     "admin",
		AdminPassword: "adminSecret",
		RemovalPolicy: policy,
		BcryptCost:    bcrypt.MinCost,
	}, discardLogger)

	if err := f.repo.Bootstrap(context.Background()); err != nil {
		panic(err)
	}
	admin, err := f.repo.GetUserByName(context.Background(), "admin")
	if err != nil {
		panic(err)
	}
	f.adminID = admin.ID
	return f
}

func (f *fixture) createUser(name string) *domain.User {
	u, err := f.repo.CreateUser(context.Background(), ports.CreateUserInput{Name: name, Password: "longenough1"}, "")
	if err != nil {
		panic(err)
	}
	return u
}
