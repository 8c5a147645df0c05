package ward

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
	api.POST("/wards", h.CreateWard)
	api.GET("/wards", h.ListWards)
	api.GET("/wards/:id", h.GetWard)
}

func (h *Handler) CreateWard(c echo.Context) error {
	var w Ward
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateWard(c.Request().Context(), &w); err != nil {
		return apperr.HTTPError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) GetWard(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return apperr.HTTPError(c, h.logger, err)
	}
	d, err := h.svc.GetWard(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListWards(c echo.Context) error {
	pg := pagination.FromContext(c)
	sort := pagination.SortFromContext(c, SortColumns, "ward_name")
	available, err := params.QueryBool(c, "available")
	if err != nil {
		return apperr.HTTPError(c, h.logger, err)
	}
	f := ListFilter{Search: c.QueryParam("search"), Type: c.QueryParam("ward_type"), Available: available}
	items, total, err := h.svc.ListWards(c.Request().Context(), f, sort, pg)
	if err != nil {
		return apperr.HTTPError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
