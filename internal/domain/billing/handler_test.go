package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	return NewHandler(svc, zerolog.Nop()), echo.New()
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandler_CreateBill(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/billing", strings.NewReader(`{"patient_id":1,"amount":99.5,"bill_date":"2024-02-01"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.CreateBill(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var b Details
	json.Unmarshal(rec.Body.Bytes(), &b)
	if b.Amount != 99.5 || b.BillDate.Month() != 2 {
		t.Errorf("unexpected bill %s", rec.Body.String())
	}
}

func TestHandler_CreateBill_BadInput(t *testing.T) {
	h, e := newTestHandler()
	for _, body := range []string{
		`{"patient_id":1,"amount":-1}`,
		`{"patient_id":1,"amount":"ten"}`,
		`{"amount":10}`,
		`{"patient_id":1,"amount":10,"bill_date":"yesterday"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/billing", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if code := statusOf(t, h.CreateBill(e.NewContext(req, httptest.NewRecorder()))); code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, code)
		}
	}
}

func TestHandler_PayBill_Twice(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateBill(context.Background(), CreateInput{PatientID: 1, Amount: 10})

	pay := func() error {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues("1")
		return h.PayBill(c)
	}
	if err := pay(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code := statusOf(t, pay()); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestHandler_ListBills_BadPaid(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/billing?paid=maybe", nil), httptest.NewRecorder())
	if code := statusOf(t, h.ListBills(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}
