package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mmp/docrepo/internal/core/ports"
)

// StructureHandler handles HTTP requests for structure operations. Reads are
// public.
type StructureHandler struct {
	service ports.StructureService
}

func NewStructureHandler(service ports.StructureService) *StructureHandler {
	return &StructureHandler{service: service}
}

// List handles GET /v1/structures.
//
// @Summary      List structures
// @Tags         structures
// @Produce      json
// @Success      200  {array}  domain.Structure
// @Router       /v1/structures [get]
func (h *StructureHandler) List(c echo.Context) error {
	structures, err := h.service.ListStructures(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, structures)
}

// Get handles GET /v1/structures/:id.
//
// @Summary      Get a structure
// @Tags         structures
// @Produce      json
// @Param        id   path      string  true  "Structure id"
// @Success      200  {object}  domain.Structure
// @Failure      404  {object}  errorResponse
// @Router       /v1/structures/{id} [get]
func (h *StructureHandler) Get(c echo.Context) error {
	s, err := h.service.GetStructure(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// Create handles POST /v1/structures. Admin only.
//
// @Summary      Create a structure
// @Tags         structures
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      structureCreationRequest  true  "New structure"
// @Success      201   {object}  domain.Structure
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/structures [post]
func (h *StructureHandler) Create(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req structureCreationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	s, err := h.service.CreateStructure(c.Request().Context(), toCreateStructureInput(req), actor)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/structures/"+s.ID)
	return c.JSON(http.StatusCreated, s)
}

// Update handles PATCH /v1/structures/:id. Admin only.
//
// @Summary      Update a structure
// @Tags         structures
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "Structure id"
// @Param        body  body      structureUpdateRequest  true  "Fields to change"
// @Success      200   {object}  domain.Structure
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/structures/{id} [patch]
func (h *StructureHandler) Update(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req structureUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	s, err := h.service.UpdateStructure(c.Request().Context(), c.Param("id"), toUpdateStructureInput(req), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// Remove handles DELETE /v1/structures/:id. Admin only.
//
// @Summary      Remove a structure
// @Tags         structures
// @Security     BearerAuth
// @Param        id   path  string  true  "Structure id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/structures/{id} [delete]
func (h *StructureHandler) Remove(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	if err := h.service.RemoveStructure(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
