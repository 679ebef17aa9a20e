package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/mmp/docrepo/internal/api/handler"
	"github.com/mmp/docrepo/internal/core/domain"
)

const (
	testSecret = "secret"
	testIssuer = "docrepo"
)

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevocations) Revoke(context.Context, string, time.Duration) error { return nil }

func (s *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[id], nil
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        "jti-1",
		Subject:   "user-1",
		Issuer:    testIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func run(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (bool, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return called, c, err
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != code {
		t.Fatalf("expected %d, got %v", code, err)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	signed := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	called, c, err := run(t, Auth(testSecret, testIssuer, &stubRevocations{}), "Bearer "+signed)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if c.Get(handler.CtxActorID) != "user-1" {
		t.Fatalf("actor id not set")
	}
	if c.Get(handler.CtxTokenID) != "jti-1" {
		t.Fatalf("token id not set")
	}
	if _, ok := c.Get(handler.CtxTokenExp).(time.Time); !ok {
		t.Fatalf("token expiry not set")
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	called, _, err := run(t, Auth(testSecret, testIssuer, &stubRevocations{}), "")
	assertStatus(t, err, http.StatusUnauthorized)
	if called {
		t.Fatalf("next must not be called")
	}
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"malformed header": "Token abc",
		"garbage token":    "Bearer not-a-jwt",
		"wrong secret":     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
		"wrong algorithm":  "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims()),
		"expired":          "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired),
		"wrong issuer":     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer),
		"no subject":       "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			called, _, err := run(t, Auth(testSecret, testIssuer, &stubRevocations{}), header)
			assertStatus(t, err, http.StatusUnauthorized)
			if called {
				t.Fatalf("next must not be called")
			}
		})
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	signed := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())
	revocations := &stubRevocations{revoked: map[string]bool{"jti-1": true}}

	called, _, err := run(t, Auth(testSecret, testIssuer, revocations), "Bearer "+signed)
	assertStatus(t, err, http.StatusUnauthorized)
	if called {
		t.Fatalf("next must not be called")
	}
}

func TestAuthMiddleware_RevocationLookupFails(t *testing.T) {
	signed := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())
	revocations := &stubRevocations{err: errors.New("redis down")}

	_, _, err := run(t, Auth(testSecret, testIssuer, revocations), "Bearer "+signed)
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestOptionalAuth(t *testing.T) {
	mw := OptionalAuth(testSecret, testIssuer, &stubRevocations{})

	called, c, err := run(t, mw, "")
	if err != nil || !called {
		t.Fatalf("anonymous request should pass: called=%v err=%v", called, err)
	}
	if c.Get(handler.CtxActorID) != nil {
		t.Fatalf("anonymous request must not carry an actor")
	}

	signed := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())
	called, c, err = run(t, mw, "Bearer "+signed)
	if err != nil || !called || c.Get(handler.CtxActorID) != "user-1" {
		t.Fatalf("authenticated request should carry actor: called=%v err=%v", called, err)
	}

	_, _, err = run(t, mw, "Bearer garbage")
	assertStatus(t, err, http.StatusUnauthorized)
}
