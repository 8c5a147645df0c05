package medicalrecord

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
	api.POST("/medical-records", h.CreateRecord)
	api.GET("/medical-records", h.ListRecords)
	api.GET("/medical-records/:id", h.GetRecord)
}

type createRequest struct {
	PatientID  int64  `json:"patient_id"`
	DoctorID   *int64 `json:"doctor_id"`
	Diagnosis  string `json:"diagnosis"`
	Treatment  string `json:"treatment"`
	RecordDate string `json:"record_date"`
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date, err := params.OptionalDate(req.RecordDate)
	if err != nil {
		return h.fail(c, err)
	}
	rec, err := h.svc.CreateRecord(c.Request().Context(), CreateInput{
		PatientID:  req.PatientID,
		DoctorID:   req.DoctorID,
		Diagnosis:  req.Diagnosis,
		Treatment:  req.Treatment,
		RecordDate: date,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	sort := pagination.SortFromContext(c, SortColumns, "record_date")
	f := ListFilter{Search: c.QueryParam("search")}
	var err error
	if f.PatientID, err = params.QueryID(c, "patient_id"); err != nil {
		return h.fail(c, err)
	}
	if f.DoctorID, err = params.QueryID(c, "doctor_id"); err != nil {
		return h.fail(c, err)
	}
	items, total, err := h.svc.ListRecords(c.Request().Context(), f, sort, pg)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) fail(c echo.Context, err error) error {
	return apperr.HTTPError(c, h.logger, err)
}
