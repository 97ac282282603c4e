package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/dashboard"
	"github.com/trezcool/academia/core/user"
)

type dashboardAPI struct {
	svc *dashboard.Service
}

func registerDashboardAPI(e *echo.Echo, auth echo.MiddlewareFunc, svc *dashboard.Service) {
	api := dashboardAPI{svc: svc}

	e.GET("/admin_dashboard", api.admin, auth, roleMiddleware(user.RoleAdmin))
	e.GET("/sponsor_dashboard", api.sponsor, auth, roleMiddleware(user.RoleSponsor))
}

func (api *dashboardAPI) admin(ctx echo.Context) error {
	stats, err := api.svc.Admin(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing admin stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// sponsor reports on the sponsorships of the context user.
func (api *dashboardAPI) sponsor(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	stats, err := api.svc.Sponsor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing sponsor stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
