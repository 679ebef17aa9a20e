package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

func TestDocumentHandler_List_Query(t *testing.T) {
	stub := &stubDocumentService{
		listFn: func(ctx context.Context, q ports.DocumentQuery, actorID string) ([]*domain.Document, error) {
			if q.Owner != "u1" || q.Title != "report" {
				t.Fatalf("unexpected query: %+v", q)
			}
			if q.Type == nil || *q.Type != 2 || q.SubType != nil {
				t.Fatalf("unexpected type filters: %+v", q)
			}
			return []*domain.Document{{ID: "d1", Owner: "u1", Title: "report", Type: 2}}, nil
		},
	}
	handler := NewDocumentHandler(stub)

	c, rec := newContext(http.MethodGet, "/v1/documents?owner=u1&title=report&type=2", nil, "u1")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"d1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestDocumentHandler_List_BadInteger(t *testing.T) {
	handler := NewDocumentHandler(&stubDocumentService{})

	c, _ := newContext(http.MethodGet, "/v1/documents?subType=abc", nil, "u1")
	if err := handler.List(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDocumentHandler_Create(t *testing.T) {
	stub := &stubDocumentService{
		createFn: func(ctx context.Context, in ports.CreateDocumentInput, actorID string) (*domain.Document, error) {
			if actorID != "u1" || in.Title != "notes" || in.SubType != 3 {
				t.Fatalf("unexpected call: %+v by %q", in, actorID)
			}
			if string(in.Content) != `{"k":"v"}` {
				t.Fatalf("unexpected content: %s", in.Content)
			}
			return &domain.Document{ID: "d7", Owner: actorID, Title: in.Title}, nil
		},
	}
	handler := NewDocumentHandler(stub)

	body := `{"title":"notes","type":1,"subType":3,"content":{"k":"v"}}`
	c, rec := newContext(http.MethodPost, "/v1/documents", strings.NewReader(body), "u1")
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestDocumentHandler_Create_Validation(t *testing.T) {
	handler := NewDocumentHandler(&stubDocumentService{})

	c, _ := newContext(http.MethodPost, "/v1/documents", strings.NewReader(`{"title":"x","type":-1}`), "u1")
	if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDocumentHandler_Update_ForwardsOwner(t *testing.T) {
	stub := &stubDocumentService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateDocumentInput, actorID string) (*domain.Document, error) {
			if in.Owner == nil || *in.Owner != "u2" {
				t.Fatalf("expected owner to be forwarded: %+v", in)
			}
			return nil, domain.ErrImmutableField
		},
	}
	handler := NewDocumentHandler(stub)

	c, _ := newContext(http.MethodPatch, "/v1/documents/d1", strings.NewReader(`{"owner":"u2"}`), "u1")
	c.SetParamNames("id")
	c.SetParamValues("d1")
	if err := handler.Update(c); !errors.Is(err, domain.ErrImmutableField) {
		t.Fatalf("expected ErrImmutableField, got %v", err)
	}
}

func TestDocumentHandler_Update_NullOwnerIsAnOwnerChange(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantOwner bool
	}{
		{name: "null owner", body: `{"title":"renamed","owner":null}`, wantOwner: true},
		{name: "empty owner", body: `{"owner":""}`, wantOwner: true},
		{name: "no owner", body: `{"title":"renamed"}`, wantOwner: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubDocumentService{
				updateFn: func(ctx context.Context, id string, in ports.UpdateDocumentInput, actorID string) (*domain.Document, error) {
					if (in.Owner != nil) != tt.wantOwner {
						t.Fatalf("owner forwarded = %v, want %v", in.Owner != nil, tt.wantOwner)
					}
					if in.Owner != nil {
						return nil, domain.ErrImmutableField
					}
					return &domain.Document{ID: id, Owner: actorID, Title: *in.Title}, nil
				},
			}
			handler := NewDocumentHandler(stub)

			c, _ := newContext(http.MethodPatch, "/v1/documents/d1", strings.NewReader(tt.body), "u1")
			c.SetParamNames("id")
			c.SetParamValues("d1")
			err := handler.Update(c)
			if tt.wantOwner && !errors.Is(err, domain.ErrImmutableField) {
				t.Fatalf("expected ErrImmutableField, got %v", err)
			}
			if !tt.wantOwner && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDocumentHandler_Update_NullContent(t *testing.T) {
	stub := &stubDocumentService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateDocumentInput, actorID string) (*domain.Document, error) {
			if in.Content != nil {
				t.Fatalf("expected null content to be dropped, got %s", in.Content)
			}
			return &domain.Document{ID: id, Owner: actorID, Title: *in.Title}, nil
		},
	}
	handler := NewDocumentHandler(stub)

	c, rec := newContext(http.MethodPatch, "/v1/documents/d1", strings.NewReader(`{"title":"renamed","content":null}`), "u1")
	c.SetParamNames("id")
	c.SetParamValues("d1")
	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDocumentHandler_Remove_NotFound(t *testing.T) {
	stub := &stubDocumentService{
		removeFn: func(ctx context.Context, id, actorID string) error {
			return domain.ErrNotFound
		},
	}
	handler := NewDocumentHandler(stub)

	c, _ := newContext(http.MethodDelete, "/v1/documents/missing", nil, "u1")
	c.SetParamNames("id")
	c.SetParamValues("missing")
	if err := handler.Remove(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
