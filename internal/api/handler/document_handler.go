package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// DocumentHandler handles HTTP requests for document operations.
type DocumentHandler struct {
	service ports.DocumentService
}

func NewDocumentHandler(service ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// List handles GET /v1/documents.
//
// @Summary      List documents
// @Description  Admins see every document; other users only their own.
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        owner    query     string  false  "Owner user id"
// @Param        title    query     string  false  "Exact title"
// @Param        type     query     int     false  "Document type"
// @Param        subType  query     int     false  "Document sub type"
// @Success      200      {array}   domain.Document
// @Failure      400      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /v1/documents [get]
func (h *DocumentHandler) List(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	q := ports.DocumentQuery{
		Owner: c.QueryParam("owner"),
		Title: c.QueryParam("title"),
	}
	if q.Type, err = intQuery(c, "type"); err != nil {
		return err
	}
	if q.SubType, err = intQuery(c, "subType"); err != nil {
		return err
	}

	docs, err := h.service.ListDocuments(c.Request().Context(), q, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, docs)
}

// Get handles GET /v1/documents/:id.
//
// @Summary      Get a document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document id"
// @Success      200  {object}  domain.Document
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/documents/{id} [get]
func (h *DocumentHandler) Get(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	doc, err := h.service.GetDocument(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// Create handles POST /v1/documents. The caller becomes the owner.
//
// @Summary      Create a document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      documentCreationRequest  true  "New document"
// @Success      201   {object}  domain.Document
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/documents [post]
func (h *DocumentHandler) Create(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req documentCreationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doc, err := h.service.CreateDocument(c.Request().Context(), toCreateDocumentInput(req), actor)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/documents/"+doc.ID)
	return c.JSON(http.StatusCreated, doc)
}

// Update handles PATCH /v1/documents/:id.
//
// @Summary      Update a document
// @Description  The owner of a document can never be changed.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Document id"
// @Param        body  body      documentUpdateRequest  true  "Fields to change"
// @Success      200   {object}  domain.Document
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/documents/{id} [patch]
func (h *DocumentHandler) Update(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req documentUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doc, err := h.service.UpdateDocument(c.Request().Context(), c.Param("id"), toUpdateDocumentInput(req), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// Remove handles DELETE /v1/documents/:id.
//
// @Summary      Remove a document
// @Tags         documents
// @Security     BearerAuth
// @Param        id   path  string  true  "Document id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/documents/{id} [delete]
func (h *DocumentHandler) Remove(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	if err := h.service.RemoveDocument(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func intQuery(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return &v, nil
}
