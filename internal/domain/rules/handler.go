package rules

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pharmasense/pharmasense/internal/platform/auth"
	"github.com/pharmasense/pharmasense/pkg/pagination"
)

// Handler exposes the knowledge tables the engine evaluates against.
// The tables change rarely; the request path reads them from the
// refdata cache, so these endpoints exist for curation only.
type Handler struct {
	interactions DrugInteractionRepository
	doseRanges   DoseRangeRepository
}

func NewHandler(interactions DrugInteractionRepository, doseRanges DoseRangeRepository) *Handler {
	return &Handler{interactions: interactions, doseRanges: doseRanges}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "pharmacist"))
	readGroup.GET("/reference/interactions", h.ListInteractions)
	readGroup.GET("/reference/interactions/:id", h.GetInteraction)
	readGroup.GET("/reference/dose-ranges", h.ListDoseRanges)
	readGroup.GET("/reference/dose-ranges/:id", h.GetDoseRange)

	writeGroup := api.Group("", auth.RequireRole("admin", "pharmacist"))
	writeGroup.POST("/reference/interactions", h.CreateInteraction)
	writeGroup.DELETE("/reference/interactions/:id", h.DeleteInteraction)
	writeGroup.POST("/reference/dose-ranges", h.CreateDoseRange)
	writeGroup.DELETE("/reference/dose-ranges/:id", h.DeleteDoseRange)
}

func (h *Handler) CreateInteraction(c echo.Context) error {
	var d DrugInteraction
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if d.DrugA == "" || d.DrugB == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "drug_a and drug_b are required")
	}
	switch d.Severity {
	case SeveritySevere, SeverityModerate, SeverityMild:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "severity must be SEVERE, MODERATE, or MILD")
	}
	if err := h.interactions.Create(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetInteraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.interactions.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "drug interaction not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListInteractions(c echo.Context) error {
	params := pagination.FromContext(c)
	items, total, err := h.interactions.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) DeleteInteraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.interactions.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "drug interaction not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateDoseRange(c echo.Context) error {
	var d DoseRange
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if d.MedicationName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "medication_name is required")
	}
	if d.MinDoseMg < 0 || d.MaxDoseMg < d.MinDoseMg {
		return echo.NewHTTPError(http.StatusBadRequest, "dose range bounds are invalid")
	}
	if err := h.doseRanges.Create(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoseRange(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.doseRanges.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "dose range not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoseRanges(c echo.Context) error {
	params := pagination.FromContext(c)
	items, total, err := h.doseRanges.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) DeleteDoseRange(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.doseRanges.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "dose range not found")
	}
	return c.NoContent(http.StatusNoContent)
}
