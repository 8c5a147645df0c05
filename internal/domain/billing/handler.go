package billing

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
	api.POST("/billing", h.CreateBill)
	api.GET("/billing", h.ListBills)
	api.GET("/billing/statistics", h.Statistics)
	api.GET("/billing/:id", h.GetBill)
	api.POST("/billing/:id/pay", h.PayBill)
}

type createRequest struct {
	PatientID int64   `json:"patient_id"`
	Amount    float64 `json:"amount"`
	BillDate  string  `json:"bill_date"`
}

func (h *Handler) CreateBill(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PatientID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and amount are required")
	}
	date, err := params.OptionalDate(req.BillDate)
	if err != nil {
		return h.fail(c, err)
	}
	b, err := h.svc.CreateBill(c.Request().Context(), CreateInput{PatientID: req.PatientID, Amount: req.Amount, BillDate: date})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	b, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) PayBill(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	b, err := h.svc.PayBill(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)
	sort := pagination.SortFromContext(c, SortColumns, "bill_date")
	var (
		f   ListFilter
		err error
	)
	if f.PatientID, err = params.QueryID(c, "patient_id"); err != nil {
		return h.fail(c, err)
	}
	if f.Paid, err = params.QueryBool(c, "paid"); err != nil {
		return h.fail(c, err)
	}
	if f.From, err = params.QueryDate(c, "start_date"); err != nil {
		return h.fail(c, err)
	}
	if f.To, err = params.QueryDate(c, "end_date"); err != nil {
		return h.fail(c, err)
	}
	items, total, err := h.svc.ListBills(c.Request().Context(), f, sort, pg)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Statistics(c echo.Context) error {
	from, err := params.QueryDate(c, "start_date")
	if err != nil {
		return h.fail(c, err)
	}
	to, err := params.QueryDate(c, "end_date")
	if err != nil {
		return h.fail(c, err)
	}
	stats, err := h.svc.Statistics(c.Request().Context(), from, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) fail(c echo.Context, err error) error {
	return apperr.HTTPError(c, h.logger, err)
}
