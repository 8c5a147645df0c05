// Package params parses path and query values the way every handler needs
// them: positive integer ids, YYYY-MM-DD dates and UTC timestamps. Failures
// are apperr validation errors so handlers can pass them straight through.
package params

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
)

const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseID parses a positive integer id. name is used in the error message.
func ParseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// ID reads a path parameter as a positive integer id.
func ID(c echo.Context, name string) (int64, error) {
	return ParseID(c.Param(name), name)
}

// QueryID reads an optional id filter. An absent parameter yields nil.
func QueryID(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := ParseID(raw, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseDate parses YYYY-MM-DD as midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// OptionalDate parses raw when it is non-empty.
func OptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// QueryDate reads an optional YYYY-MM-DD query parameter.
func QueryDate(c echo.Context, name string) (*time.Time, error) {
	return OptionalDate(c.QueryParam(name))
}

// ParseTimestamp accepts RFC 3339 or a zone-less YYYY-MM-DDTHH:MM[:SS],
// which is read as UTC. The result is always in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validation("invalid date %q, expected an ISO 8601 timestamp", raw)
}

// QueryBool reads an optional boolean query parameter.
func QueryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("invalid %s, expected true or false", name)
	}
	return &b, nil
}

// QueryInt reads an optional integer, falling back to def and clamping to max.
func QueryInt(c echo.Context, name string, def, max int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
