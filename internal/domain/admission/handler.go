package admission

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/pkg/pagination"
	"github.com/hospital/hms/pkg/params"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/admissions", h.Admit)
	api.GET("/admissions", h.ListAdmissions)
	api.GET("/admissions/:id", h.GetAdmission)
	api.POST("/admissions/:id/discharge", h.Discharge)
}

type admitRequest struct {
	PatientID     int64  `json:"patient_id"`
	WardID        int64  `json:"ward_id"`
	AdmissionDate string `json:"admission_date"`
}

type dischargeRequest struct {
	DischargeDate string `json:"discharge_date"`
}

func (h *Handler) Admit(c echo.Context) error {
	var req admitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PatientID <= 0 || req.WardID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and ward_id must be positive integers")
	}
	date, err := params.OptionalDate(req.AdmissionDate)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.svc.Admit(c.Request().Context(), AdmitInput{
		PatientID:     req.PatientID,
		WardID:        req.WardID,
		AdmissionDate: date,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req dischargeRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	date, err := params.OptionalDate(req.DischargeDate)
	if err != nil {
		return h.fail(c, err)
	}
	d, err := h.svc.Discharge(c.Request().Context(), id, date)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetAdmission(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	d, err := h.svc.GetAdmission(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListAdmissions(c echo.Context) error {
	pg := pagination.FromContext(c)
	sort := pagination.SortFromContext(c, SortColumns, "admission_date")
	var f ListFilter
	var err error
	if f.PatientID, err = params.QueryID(c, "patient_id"); err != nil {
		return h.fail(c, err)
	}
	if f.WardID, err = params.QueryID(c, "ward_id"); err != nil {
		return h.fail(c, err)
	}
	switch c.QueryParam("status") {
	case "":
	case "current":
		current := true
		f.Current = &current
	case "discharged":
		current := false
		f.Current = &current
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status must be current or discharged")
	}
	items, total, err := h.svc.ListAdmissions(c.Request().Context(), f, sort, pg)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) fail(c echo.Context, err error) error {
	return apperr.HTTPError(c, h.logger, err)
}
