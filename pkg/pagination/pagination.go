package pagination

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads limit plus either offset or a 1-based page.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset <= 0 {
		if page, _ := strconv.Atoi(c.QueryParam("page")); page > 1 {
			offset = (page - 1) * limit
		}
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.Offset+p.Limit < total,
	}
}

// SQL returns the LIMIT and OFFSET clause. Both values are integers owned by
// Params, never raw input.
func (p Params) SQL() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit, p.Offset)
}

// Columns maps public sort keys to fixed SQL expressions.
type Columns map[string]string

// Sort is a resolved ORDER BY: the expression always comes from a Columns value.
type Sort struct {
	Expr string
	Desc bool
}

// SortFromContext resolves sortBy/sortOrder against allowed. Unknown keys
// fall back to def, which must be a key of allowed.
func SortFromContext(c echo.Context, allowed Columns, def string) Sort {
	return ResolveSort(allowed, c.QueryParam("sortBy"), c.QueryParam("sortOrder"), def)
}

func ResolveSort(allowed Columns, key, order, def string) Sort {
	expr, ok := allowed[key]
	if !ok {
		expr = allowed[def]
	}
	return Sort{Expr: expr, Desc: strings.EqualFold(order, "desc")}
}

// SQL renders the ORDER BY clause.
func (s Sort) SQL() string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return "ORDER BY " + s.Expr + " " + dir
}
