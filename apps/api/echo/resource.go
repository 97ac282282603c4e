package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/academia/core/access"
)

// crudAPI is the capability set every resource collection exposes.
type crudAPI interface {
	list(ctx echo.Context) error
	create(ctx echo.Context) error
	retrieve(ctx echo.Context) error
	update(ctx echo.Context) error        // PUT: full body
	partialUpdate(ctx echo.Context) error // PATCH
	destroy(ctx echo.Context) error
}

// registerResource mounts api under prefix, guarded by the role permissions of res.
func registerResource(g *echo.Group, prefix string, res access.Resource, api crudAPI) {
	rg := g.Group(prefix, permissionMiddleware(res))
	rg.GET("", api.list)
	rg.POST("", api.create)
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id", api.update)
	rg.PATCH("/:id", api.partialUpdate)
	rg.DELETE("/:id", api.destroy)
}
