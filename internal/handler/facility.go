package handler // handler package contains facility handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/comuna/facility-events/internal/model"
	"github.com/comuna/facility-events/internal/repository"
)

// FacilityHandler bundles the facility repository for the facility
// CRUD endpoints.  Write operations are admin-only (enforced by the
// router's role middleware).
type FacilityHandler struct {
	Facilities *repository.FacilityRepo
}

// NewFacilityHandler constructs a FacilityHandler.
func NewFacilityHandler(facilities *repository.FacilityRepo) *FacilityHandler {
	if facilities == nil {
		panic("nil repository passed to NewFacilityHandler")
	}
	return &FacilityHandler{Facilities: facilities}
}

type facilityBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Capacity    uint32 `json:"capacity"`
	IsActive    *bool  `json:"is_active"`
}

// CreateFacility handles POST /v1/facilities.
func (h *FacilityHandler) CreateFacility(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body facilityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	fac := &model.Facility{
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(body.Description),
		Address:     strings.TrimSpace(body.Address),
		Capacity:    body.Capacity,
	}
	if err := h.Facilities.Create(c.Request().Context(), fac); err != nil {
		if strings.Contains(err.Error(), "1062") { // duplicate name
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create facility"})
	}
	return c.JSON(http.StatusCreated, fac)
}

// ListFacilities handles GET /v1/facilities.  Guests see active
// facilities; ?all=true includes inactive ones.
func (h *FacilityHandler) ListFacilities(c echo.Context) error {
	activeOnly := c.QueryParam("all") != "true"
	facilities, err := h.Facilities.ListAll(c.Request().Context(), activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load facilities"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": facilities})
}

// GetFacility handles GET /v1/facilities/:id.
func (h *FacilityHandler) GetFacility(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	fac, err := h.Facilities.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrFacilityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load facility"})
	}
	return c.JSON(http.StatusOK, fac)
}

// UpdateFacility handles PUT /v1/facilities/:id.
func (h *FacilityHandler) UpdateFacility(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	fac, err := h.Facilities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrFacilityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load facility"})
	}
	var body facilityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		fac.Name = name
	}
	if body.Description != "" {
		fac.Description = strings.TrimSpace(body.Description)
	}
	if body.Address != "" {
		fac.Address = strings.TrimSpace(body.Address)
	}
	if body.Capacity != 0 {
		fac.Capacity = body.Capacity
	}
	if body.IsActive != nil {
		fac.IsActive = *body.IsActive
	}
	if err := h.Facilities.Update(ctx, fac); err != nil {
		if errors.Is(err, repository.ErrFacilityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update facility"})
	}
	return c.JSON(http.StatusOK, fac)
}

// DeleteFacility handles DELETE /v1/facilities/:id.  A facility with
// scheduled events cannot be removed.
func (h *FacilityHandler) DeleteFacility(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Facilities.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrFacilityNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility still has scheduled events"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete facility"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
