package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mmp/docrepo/internal/core/domain"
)

func TestAuditHandler_List(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &stubAuditService{
		listFn: func(ctx context.Context, actorID string, limit int) ([]*domain.AuditEvent, error) {
			if actorID != "admin" || limit != 5 {
				t.Fatalf("unexpected args: %s %d", actorID, limit)
			}
			return []*domain.AuditEvent{{ID: "e1", ActorID: "u1", Action: "update", Kind: "document", TargetID: "d1", Outcome: "denied", At: at}}, nil
		},
	}
	handler := NewAuditHandler(stub)

	c, rec := newContext(http.MethodGet, "/v1/audit?limit=5", nil, "admin")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got []auditEventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got) != 1 || got[0].Outcome != "denied" || !got[0].At.Equal(at) {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestAuditHandler_List_BadLimit(t *testing.T) {
	handler := NewAuditHandler(&stubAuditService{})

	for _, q := range []string{"-1", "ten"} {
		c, _ := newContext(http.MethodGet, "/v1/audit?limit="+q, nil, "admin")
		if err := handler.List(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("limit %q: expected ErrValidation, got %v", q, err)
		}
	}
}

func TestAuditHandler_List_Empty(t *testing.T) {
	stub := &stubAuditService{
		listFn: func(ctx context.Context, actorID string, limit int) ([]*domain.AuditEvent, error) {
			return nil, nil
		},
	}
	handler := NewAuditHandler(stub)

	c, rec := newContext(http.MethodGet, "/v1/audit", nil, "admin")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}
