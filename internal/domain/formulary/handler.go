package formulary

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pharmasense/pharmasense/internal/platform/auth"
	"github.com/pharmasense/pharmasense/pkg/pagination"
)

type Handler struct {
	svc  *Service
	repo Repository
}

func NewHandler(svc *Service, repo Repository) *Handler {
	return &Handler{svc: svc, repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints: admin, physician, pharmacist
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "pharmacist"))
	readGroup.GET("/formulary/entries", h.ListEntries)
	readGroup.GET("/formulary/entries/:id", h.GetEntry)
	readGroup.GET("/formulary/coverage", h.LookupCoverage)
	readGroup.GET("/formulary/alternatives", h.FindAlternatives)

	// Write endpoints: admin, pharmacist
	writeGroup := api.Group("", auth.RequireRole("admin", "pharmacist"))
	writeGroup.POST("/formulary/entries", h.CreateEntry)
	writeGroup.DELETE("/formulary/entries/:id", h.DeleteEntry)
	writeGroup.POST("/formulary/import", h.ImportExtraction)
}

func (h *Handler) CreateEntry(c echo.Context) error {
	var e Entry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if e.DrugName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "drug_name is required")
	}
	if err := h.repo.Create(c.Request().Context(), &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "formulary entry not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListEntries(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.repo.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) LookupCoverage(c echo.Context) error {
	medication := c.QueryParam("medication")
	if medication == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "medication is required")
	}
	entries, err := h.entriesForPlan(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	res := h.svc.LookupCoverage(medication, entries, LookupOptions{
		GenericName: c.QueryParam("generic"),
		PlanName:    c.QueryParam("plan"),
	})
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) FindAlternatives(c echo.Context) error {
	medication := c.QueryParam("medication")
	if medication == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "medication is required")
	}
	maxResults := 5
	if raw := c.QueryParam("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid max_results")
		}
		maxResults = n
	}
	entries, err := h.entriesForPlan(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	alts := h.svc.FindAlternatives(medication, entries, maxResults)
	return c.JSON(http.StatusOK, alts)
}

func (h *Handler) ImportExtraction(c echo.Context) error {
	var extraction Extraction
	if err := c.Bind(&extraction); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(extraction.Entries) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "entries is required")
	}
	entries := h.svc.ImportExtractedFormulary(extraction, c.QueryParam("plan"))
	if err := h.repo.CreateBatch(c.Request().Context(), entries); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"imported": len(entries),
	})
}

func (h *Handler) entriesForPlan(c echo.Context) ([]Entry, error) {
	ctx := c.Request().Context()
	if plan := c.QueryParam("plan"); plan != "" {
		return h.repo.ListByPlan(ctx, plan)
	}
	return h.repo.ListAll(ctx)
}
