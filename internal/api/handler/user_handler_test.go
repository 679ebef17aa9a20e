package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

func TestUserHandler_Create_Anonymous(t *testing.T) {
	stub := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput, actorID string) (*domain.User, error) {
			if actorID != "" {
				t.Fatalf("expected anonymous actor, got %q", actorID)
			}
			if in.Name != "bob" || in.Password != "longenough1" || in.IsAdmin {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u2", Name: in.Name, PasswordHash: "hash"}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/users", strings.NewReader(`{"name":"bob","password":"longenough1"}`), "")
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/v1/users/u2" {
		t.Fatalf("unexpected location: %q", loc)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestUserHandler_Create_PassesActor(t *testing.T) {
	stub := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput, actorID string) (*domain.User, error) {
			if actorID != "admin" || !in.IsAdmin {
				t.Fatalf("unexpected call: %+v by %q", in, actorID)
			}
			return &domain.User{ID: "u3", Name: in.Name, IsAdmin: true}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newContext(http.MethodPost, "/v1/users", strings.NewReader(`{"name":"carol","password":"longenough1","isAdmin":true}`), "admin")
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestUserHandler_Create_Validation(t *testing.T) {
	cases := map[string]string{
		"blank name":     `{"name":"   ","password":"longenough1"}`,
		"short password": `{"name":"bob","password":"short"}`,
		"bad email":      `{"name":"bob","password":"longenough1","email":"nope"}`,
	}
	handler := NewUserHandler(&stubUserService{})

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/v1/users", strings.NewReader(body), "")
			if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUserHandler_List_RequiresActor(t *testing.T) {
	handler := NewUserHandler(&stubUserService{})

	c, _ := newContext(http.MethodGet, "/v1/users", nil, "")
	err := handler.List(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestUserHandler_Get_Forbidden(t *testing.T) {
	stub := &stubUserService{
		getFn: func(ctx context.Context, id, actorID string) (*domain.User, error) {
			if id != "u9" || actorID != "u1" {
				t.Fatalf("unexpected args: %s %s", id, actorID)
			}
			return nil, domain.ErrForbidden
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newContext(http.MethodGet, "/v1/users/u9", nil, "u1")
	c.SetParamNames("id")
	c.SetParamValues("u9")
	if err := handler.Get(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserHandler_Update_PartialPayload(t *testing.T) {
	stub := &stubUserService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateUserInput, actorID string) (*domain.User, error) {
			if in.Name != nil || in.Password != nil || in.IsAdmin != nil {
				t.Fatalf("expected only email set: %+v", in)
			}
			if in.Email == nil || *in.Email != "u1@example.com" {
				t.Fatalf("unexpected email: %v", in.Email)
			}
			return &domain.User{ID: id, Name: "alice", Email: *in.Email}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodPatch, "/v1/users/u1", strings.NewReader(`{"email":"u1@example.com"}`), "u1")
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Email != "u1@example.com" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestUserHandler_Remove(t *testing.T) {
	stub := &stubUserService{
		removeFn: func(ctx context.Context, id, actorID string) error {
			if id != "u2" || actorID != "admin" {
				t.Fatalf("unexpected args: %s %s", id, actorID)
			}
			return nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodDelete, "/v1/users/u2", nil, "admin")
	c.SetParamNames("id")
	c.SetParamValues("u2")
	if err := handler.Remove(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
