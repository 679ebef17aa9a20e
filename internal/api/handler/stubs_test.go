package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// newContext builds an echo context for a JSON request. A non-empty actor is
// stored the way the auth middleware stores it.
func newContext(method, target string, body io.Reader, actor string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != "" {
		c.Set(CtxActorID, actor)
	}
	return c, rec
}

type stubAuthService struct {
	loginFn  func(ctx context.Context, name, password string) (string, *domain.User, error)
	logoutFn func(ctx context.Context, tokenID string, expiresAt time.Time) error
}

func (s *stubAuthService) Login(ctx context.Context, name, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, name, password)
}

func (s *stubAuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.logoutFn(ctx, tokenID, expiresAt)
}

type stubUserService struct {
	listFn   func(ctx context.Context, actorID string) ([]*domain.User, error)
	getFn    func(ctx context.Context, id, actorID string) (*domain.User, error)
	createFn func(ctx context.Context, in ports.CreateUserInput, actorID string) (*domain.User, error)
	updateFn func(ctx context.Context, id string, in ports.UpdateUserInput, actorID string) (*domain.User, error)
	removeFn func(ctx context.Context, id, actorID string) error
}

func (s *stubUserService) ListUsers(ctx context.Context, actorID string) ([]*domain.User, error) {
	return s.listFn(ctx, actorID)
}

func (s *stubUserService) GetUser(ctx context.Context, id, actorID string) (*domain.User, error) {
	return s.getFn(ctx, id, actorID)
}

func (s *stubUserService) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (s *stubUserService) CreateUser(ctx context.Context, in ports.CreateUserInput, actorID string) (*domain.User, error) {
	return s.createFn(ctx, in, actorID)
}

func (s *stubUserService) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput, actorID string) (*domain.User, error) {
	return s.updateFn(ctx, id, in, actorID)
}

func (s *stubUserService) RemoveUser(ctx context.Context, id, actorID string) error {
	return s.removeFn(ctx, id, actorID)
}

type stubDocumentService struct {
	listFn   func(ctx context.Context, q ports.DocumentQuery, actorID string) ([]*domain.Document, error)
	getFn    func(ctx context.Context, id, actorID string) (*domain.Document, error)
	createFn func(ctx context.Context, in ports.CreateDocumentInput, actorID string) (*domain.Document, error)
	updateFn func(ctx context.Context, id string, in ports.UpdateDocumentInput, actorID string) (*domain.Document, error)
	removeFn func(ctx context.Context, id, actorID string) error
}

func (s *stubDocumentService) ListDocuments(ctx context.Context, q ports.DocumentQuery, actorID string) ([]*domain.Document, error) {
	return s.listFn(ctx, q, actorID)
}

func (s *stubDocumentService) GetDocument(ctx context.Context, id, actorID string) (*domain.Document, error) {
	return s.getFn(ctx, id, actorID)
}

func (s *stubDocumentService) CreateDocument(ctx context.Context, in ports.CreateDocumentInput, actorID string) (*domain.Document, error) {
	return s.createFn(ctx, in, actorID)
}

func (s *stubDocumentService) UpdateDocument(ctx context.Context, id string, in ports.UpdateDocumentInput, actorID string) (*domain.Document, error) {
	return s.updateFn(ctx, id, in, actorID)
}

func (s *stubDocumentService) RemoveDocument(ctx context.Context, id, actorID string) error {
	return s.removeFn(ctx, id, actorID)
}

type stubStructureService struct {
	listFn   func(ctx context.Context) ([]*domain.Structure, error)
	getFn    func(ctx context.Context, id string) (*domain.Structure, error)
	createFn func(ctx context.Context, in ports.CreateStructureInput, actorID string) (*domain.Structure, error)
	updateFn func(ctx context.Context, id string, in ports.UpdateStructureInput, actorID string) (*domain.Structure, error)
	removeFn func(ctx context.Context, id, actorID string) error
}

func (s *stubStructureService) ListStructures(ctx context.Context) ([]*domain.Structure, error) {
	return s.listFn(ctx)
}

func (s *stubStructureService) GetStructure(ctx context.Context, id string) (*domain.Structure, error) {
	return s.getFn(ctx, id)
}

func (s *stubStructureService) CreateStructure(ctx context.Context, in ports.CreateStructureInput, actorID string) (*domain.Structure, error) {
	return s.createFn(ctx, in, actorID)
}

func (s *stubStructureService) UpdateStructure(ctx context.Context, id string, in ports.UpdateStructureInput, actorID string) (*domain.Structure, error) {
	return s.updateFn(ctx, id, in, actorID)
}

func (s *stubStructureService) RemoveStructure(ctx context.Context, id, actorID string) error {
	return s.removeFn(ctx, id, actorID)
}

type stubAuditService struct {
	listFn func(ctx context.Context, actorID string, limit int) ([]*domain.AuditEvent, error)
}

func (s *stubAuditService) Process(ctx context.Context, event domain.AuditEvent) error {
	return nil
}

func (s *stubAuditService) ListEvents(ctx context.Context, actorID string, limit int) ([]*domain.AuditEvent, error) {
	return s.listFn(ctx, actorID, limit)
}
