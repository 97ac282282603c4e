package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/academia/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=field,-other`; a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// paramID parses the path parameter name. Malformed ids are reported as not found.
func paramID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// queryFloat binds the optional query parameter name.
func queryFloat(ctx echo.Context, name string) (*float64, error) {
	if ctx.QueryParam(name) == "" {
		return nil, nil
	}
	var f float64
	if err := echo.QueryParamsBinder(ctx).Float64(name, &f).BindError(); err != nil {
		return nil, err
	}
	return &f, nil
}

// queryBool binds the optional query parameter name.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	if ctx.QueryParam(name) == "" {
		return nil, nil
	}
	var b bool
	if err := echo.QueryParamsBinder(ctx).Bool(name, &b).BindError(); err != nil {
		return nil, err
	}
	return &b, nil
}
