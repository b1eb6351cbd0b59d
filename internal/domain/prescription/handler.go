package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pharmasense/pharmasense/internal/apperr"
	"github.com/pharmasense/pharmasense/internal/domain/formulary"
	"github.com/pharmasense/pharmasense/internal/domain/rules"
	"github.com/pharmasense/pharmasense/internal/platform/auth"
)

// ReferenceSource supplies the knowledge-table snapshot the pipeline
// evaluates against. The refdata cache implements it.
type ReferenceSource interface {
	DrugInteractions() []rules.DrugInteraction
	DoseRanges() []rules.DoseRange
	FormularyEntries() []formulary.Entry
}

type Handler struct {
	svc         *Service
	refs        ReferenceSource
	defaultPlan string
}

// NewHandler builds the prescription HTTP handler. defaultPlan is the
// insurance plan assumed when a request does not name one.
func NewHandler(svc *Service, refs ReferenceSource, defaultPlan string) *Handler {
	return &Handler{svc: svc, refs: refs, defaultPlan: defaultPlan}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	group := api.Group("", auth.RequireRole("admin", "physician"))
	group.POST("/prescriptions/recommend", h.Recommend)
	group.POST("/prescriptions/validate", h.Validate)
	group.POST("/prescriptions/approve", h.Approve)
	group.POST("/prescriptions/reject", h.Reject)
	group.GET("/prescriptions", h.ListByVisit)
	group.GET("/prescriptions/:id/receipt", h.GetReceipt)
	group.POST("/prescriptions/:id/patient-pack", h.PatientPack)
}

// httpError maps the typed pipeline errors onto HTTP statuses:
// validation 400, safety block 422, not found 404, everything else 500.
func httpError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	switch {
	case apperr.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case apperr.IsSafetyBlock(err):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case apperr.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) referenceData(c echo.Context) ReferenceData {
	plan := c.QueryParam("plan")
	if plan == "" {
		plan = h.defaultPlan
	}
	return ReferenceData{
		Formulary:        h.refs.FormularyEntries(),
		DrugInteractions: h.refs.DrugInteractions(),
		DoseRanges:       h.refs.DoseRanges(),
		PlanName:         plan,
	}
}

func (h *Handler) Recommend(c echo.Context) error {
	var req RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.VisitID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "visit_id is required")
	}
	if req.ChiefComplaint == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chief_complaint is required")
	}

	resp, err := h.svc.GenerateRecommendations(c.Request().Context(), req, h.referenceData(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Validate(c echo.Context) error {
	var req ValidationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.ProposedDrugs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "proposed_drugs is required")
	}

	allergies := splitParam(c, "allergies")
	currentMeds := splitParam(c, "current_medications")

	resp, err := h.svc.ValidatePrescriptions(c.Request().Context(), req, allergies, currentMeds, h.referenceData(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Approve(c echo.Context) error {
	var req ApprovalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PrescriptionID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "prescription_id is required")
	}

	plan := c.QueryParam("plan")
	if plan == "" {
		plan = h.defaultPlan
	}
	actx := ApprovalContext{
		PatientName:   c.QueryParam("patient_name"),
		ClinicianName: c.QueryParam("clinician_name"),
		PlanName:      plan,
		MemberID:      c.QueryParam("member_id"),
	}
	if claims := auth.ClaimsFromContext(c.Request().Context()); claims != nil {
		if uid, err := uuid.Parse(claims.Subject); err == nil {
			actx.ClinicianID = uid
		}
		if actx.ClinicianName == "" {
			actx.ClinicianName = claims.Name
		}
	}

	receipt, err := h.svc.ApprovePrescription(c.Request().Context(), req, actx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, receipt)
}

func (h *Handler) Reject(c echo.Context) error {
	var req RejectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PrescriptionID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "prescription_id is required")
	}

	if err := h.svc.RejectPrescription(c.Request().Context(), req); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByVisit(c echo.Context) error {
	visitID, err := uuid.Parse(c.QueryParam("visit_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit_id")
	}
	items, err := h.svc.ListByVisit(c.Request().Context(), visitID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetReceipt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	receipt, err := h.svc.GetReceipt(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, receipt)
}

func (h *Handler) PatientPack(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	opts := PatientPackOptions{
		PatientAllergies:   splitParam(c, "allergies"),
		CurrentMedications: splitParam(c, "current_medications"),
		Language:           c.QueryParam("language"),
	}
	pack, err := h.svc.GetPatientPack(c.Request().Context(), id, opts)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pack)
}

func splitParam(c echo.Context, name string) []string {
	params := c.QueryParams()[name]
	out := make([]string, 0, len(params))
	for _, p := range params {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
