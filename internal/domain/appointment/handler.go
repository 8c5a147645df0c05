package appointment

import (
	"net/http"
	"strings"
	"time"

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
	api.POST("/appointments", h.CreateAppointment)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/statistics", h.Statistics)
	api.GET("/appointments/upcoming", h.Upcoming)
	api.GET("/appointments/:id", h.GetAppointment)
	api.PUT("/appointments/:id", h.UpdateAppointment)
	api.DELETE("/appointments/:id", h.CancelAppointment)
	api.POST("/appointments/:id/cancel", h.CancelAppointment)
}

type createRequest struct {
	PatientID       int64   `json:"patient_id"`
	DoctorID        int64   `json:"doctor_id"`
	AppointmentDate string  `json:"appointment_date"`
	Status          string  `json:"status"`
	Notes           *string `json:"notes"`
}

type updateRequest struct {
	AppointmentDate *string `json:"appointment_date"`
	DoctorID        *int64  `json:"doctor_id"`
	Status          *string `json:"status"`
	Notes           *string `json:"notes"`
}

func (r updateRequest) toUpdate() (UpdateInput, error) {
	in := UpdateInput{DoctorID: r.DoctorID, Notes: r.Notes}
	if r.AppointmentDate != nil {
		t, err := params.ParseTimestamp(*r.AppointmentDate)
		if err != nil {
			return in, apperr.Validation("invalid date")
		}
		in.AppointmentDate = &t
	}
	if r.Status != nil {
		st, err := ParseStatus(*r.Status)
		if err != nil {
			return in, err
		}
		in.Status = &st
	}
	return in, nil
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PatientID <= 0 || req.DoctorID <= 0 || strings.TrimSpace(req.AppointmentDate) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id, doctor_id and appointment_date are required")
	}
	at, err := params.ParseTimestamp(req.AppointmentDate)
	if err != nil {
		return h.fail(c, err)
	}
	in := CreateInput{PatientID: req.PatientID, DoctorID: req.DoctorID, AppointmentDate: at, Notes: req.Notes}
	if req.Status != "" {
		if in.Status, err = ParseStatus(req.Status); err != nil {
			return h.fail(c, err)
		}
	}
	res, err := h.svc.CreateAppointment(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	d, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in, err := req.toUpdate()
	if err != nil {
		return h.fail(c, err)
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Appointment cancelled successfully",
		"appointment": a,
	})
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	sort := pagination.SortFromContext(c, SortColumns, "appointment_date")
	f := ListFilter{
		Search:         c.QueryParam("search"),
		Specialization: c.QueryParam("specialization"),
	}
	var err error
	if raw := c.QueryParam("status"); raw != "" {
		if f.Status, err = ParseStatus(raw); err != nil {
			return h.fail(c, err)
		}
	}
	if f.DoctorID, err = params.QueryID(c, "doctor_id"); err != nil {
		return h.fail(c, err)
	}
	if f.PatientID, err = params.QueryID(c, "patient_id"); err != nil {
		return h.fail(c, err)
	}
	if f.From, f.To, err = queryRange(c); err != nil {
		return h.fail(c, err)
	}
	items, total, err := h.svc.ListAppointments(c.Request().Context(), f, sort, pg)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Statistics(c echo.Context) error {
	from, to, err := queryRange(c)
	if err != nil {
		return h.fail(c, err)
	}
	stats, err := h.svc.Statistics(c.Request().Context(), from, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Upcoming(c echo.Context) error {
	doctorID, err := params.QueryID(c, "doctor_id")
	if err != nil {
		return h.fail(c, err)
	}
	limit := params.QueryInt(c, "limit", DefaultUpcomingLimit, MaxUpcomingLimit)
	items, err := h.svc.Upcoming(c.Request().Context(), doctorID, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  items,
		"count": len(items),
	})
}

// queryRange reads start_date and end_date. A bare date as end_date covers
// the whole day.
func queryRange(c echo.Context) (*time.Time, *time.Time, error) {
	from, err := queryTime(c.QueryParam("start_date"), false)
	if err != nil {
		return nil, nil, err
	}
	to, err := queryTime(c.QueryParam("end_date"), true)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func queryTime(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if d, err := params.ParseDate(raw); err == nil {
		if endOfDay {
			d = d.Add(24*time.Hour - time.Microsecond)
		}
		return &d, nil
	}
	t, err := params.ParseTimestamp(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) fail(c echo.Context, err error) error {
	return apperr.HTTPError(c, h.logger, err)
}
