package params

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"1.5", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.raw, "id")
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseID(%q) = %d, %v; want %d", tt.raw, got, err, tt.want)
		}
		if !tt.ok && !apperr.IsValidation(err) {
			t.Errorf("ParseID(%q) expected validation error, got %v", tt.raw, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", got)
	}
	for _, bad := range []string{"2024-13-01", "01/02/2024", "2024-02-30", ""} {
		if _, err := ParseDate(bad); !apperr.IsValidation(err) {
			t.Errorf("ParseDate(%q) expected validation error, got %v", bad, err)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	for _, raw := range []string{
		"2024-03-01T10:30:00Z",
		"2024-03-01T12:30:00+02:00",
		"2024-03-01T10:30:00",
		"2024-03-01T10:30",
		"2024-03-01 10:30:00",
	} {
		got, err := ParseTimestamp(raw)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", raw, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("ParseTimestamp(%q) = %v, want %v in UTC", raw, got, want)
		}
	}
	if _, err := ParseTimestamp("tomorrow"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestQueryHelpers(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?ward_id=7&current=true&limit=500&from=2024-01-01", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	id, err := QueryID(c, "ward_id")
	if err != nil || id == nil || *id != 7 {
		t.Errorf("QueryID = %v, %v", id, err)
	}
	missing, err := QueryID(c, "patient_id")
	if err != nil || missing != nil {
		t.Errorf("expected nil for absent id, got %v, %v", missing, err)
	}
	b, err := QueryBool(c, "current")
	if err != nil || b == nil || !*b {
		t.Errorf("QueryBool = %v, %v", b, err)
	}
	if n := QueryInt(c, "limit", 10, 100); n != 100 {
		t.Errorf("expected limit clamped to 100, got %d", n)
	}
	from, err := QueryDate(c, "from")
	if err != nil || from == nil || from.Year() != 2024 {
		t.Errorf("QueryDate = %v, %v", from, err)
	}
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 2, 27, 23, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != 3 {
		t.Errorf("expected 3 days across leap day, got %d", got)
	}
	if got := DaysBetween(to, to); got != 0 {
		t.Errorf("expected 0 for same day, got %d", got)
	}
}
