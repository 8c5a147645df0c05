package doctor

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
	api.POST("/doctors", h.CreateDoctor)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/specializations", h.ListSpecializations)
	api.GET("/doctors/:id", h.GetDoctor)
	api.PUT("/doctors/:id", h.UpdateDoctor)
	api.DELETE("/doctors/:id", h.DeleteDoctor)
}

type doctorRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Specialization *string `json:"specialization"`
	PhoneNumber    *string `json:"phone_number"`
	Email          *string `json:"email"`
}

func (r *doctorRequest) toUpdate() UpdateInput {
	return UpdateInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Specialization: r.Specialization,
		PhoneNumber:    r.PhoneNumber,
		Email:          r.Email,
	}
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	var d Doctor
	req.toUpdate().apply(&d)
	if err := h.svc.CreateDoctor(c.Request().Context(), &d); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	sort := pagination.SortFromContext(c, SortColumns, "doctor_id")
	f := ListFilter{Search: c.QueryParam("search"), Specialization: c.QueryParam("specialization")}
	items, total, err := h.svc.ListDoctors(c.Request().Context(), f, sort, pg)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ListSpecializations(c echo.Context) error {
	specs, err := h.svc.Specializations(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"data": specs})
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, req.toUpdate())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Doctor deleted successfully"})
}

func (h *Handler) fail(c echo.Context, err error) error {
	return apperr.HTTPError(c, h.logger, err)
}
