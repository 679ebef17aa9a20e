package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmp/docrepo/internal/core/domain"
)

type stubRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{revoked: make(map[string]time.Duration)}
}

func (s *stubRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[id] = ttl
	return nil
}

func (s *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[id]
	return ok, nil
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newFixture(RemovalRestrict)
	svc := NewAuthService(f.repo, newStubRevocations(), "secret", time.Hour)
	alice := f.createUser("alice")

	token, user, err := svc.Login(context.Background(), "alice", "longenough1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.ID != alice.ID {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != alice.ID {
		t.Fatalf("expected subject %s, got %s", alice.ID, claims.Subject)
	}
	if claims.Issuer != TokenIssuer {
		t.Fatalf("expected issuer %s, got %s", TokenIssuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected expiry in %v", ttl)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	f := newFixture(RemovalRestrict)
	svc := NewAuthService(f.repo, newStubRevocations(), "secret", time.Hour)
	f.createUser("dave")

	if _, _, err := svc.Login(context.Background(), "dave", "badpass123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	f := newFixture(RemovalRestrict)
	svc := NewAuthService(f.repo, newStubRevocations(), "secret", time.Hour)

	if _, _, err := svc.Login(context.Background(), "ghost", "password1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty credentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownNameComparesHash(t *testing.T) {
	f := newFixture(RemovalRestrict)
	svc := NewAuthService(f.repo, newStubRevocations(), "secret", time.Hour)
	f.createUser("dave")

	var compared [][]byte
	svc.compare = func(hash, password []byte) error {
		compared = append(compared, hash)
		return errors.New("mismatch")
	}

	if _, _, err := svc.Login(context.Background(), "ghost", "password1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "dave", "password1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if len(compared) != 2 {
		t.Fatalf("expected one hash comparison per login, got %d", len(compared))
	}
	if cost, err := bcrypt.Cost(compared[0]); err != nil || cost != bcrypt.DefaultCost {
		t.Fatalf("unknown name must be compared against a real bcrypt hash, cost=%d err=%v", cost, err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	f := newFixture(RemovalRestrict)
	revocations := newStubRevocations()
	svc := NewAuthService(f.repo, revocations, "secret", time.Hour)
	ctx := context.Background()

	if err := svc.Logout(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if revoked, _ := revocations.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("expected token to be revoked")
	}

	if err := svc.Logout(ctx, "jti-2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Logout of expired token failed: %v", err)
	}
	if revoked, _ := revocations.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatalf("expired token should not be stored")
	}

	if err := svc.Logout(ctx, "", time.Now().Add(time.Hour)); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
