package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/services/throttle"
)

type userAPI struct {
	svc      *user.Service
	limiter  throttle.Limiter
	validate *validator.Validate
}

func registerUserAPI(e *echo.Echo, auth echo.MiddlewareFunc, svc *user.Service, limiter throttle.Limiter, validate *validator.Validate) {
	api := userAPI{
		svc:      svc,
		limiter:  limiter,
		validate: validate,
	}

	// un-authed endpoints
	e.POST("/login", api.login)

	// authed endpoints
	e.POST("/register", api.register, auth, roleMiddleware(user.RoleAdmin))
}

// Handlers

func (api *userAPI) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

// login exchanges credentials for the user's token. Failures are counted per client and email.
func (api *userAPI) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	key := ctx.RealIP() + ":" + core.CleanString(data.Email, true)

	blocked, err := api.limiter.Blocked(reqCtx, key)
	if err != nil {
		return errors.Wrap(err, "checking login attempts")
	}
	if blocked {
		return errTooManyAttempts
	}

	token, err := api.svc.Login(reqCtx, data)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			if fErr := api.limiter.Fail(reqCtx, key); fErr != nil {
				ctx.Logger().Errorf("%+v", errors.Wrap(fErr, "recording failed login"))
			}
		}
		return err
	}
	if err = api.limiter.Reset(reqCtx, key); err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "resetting login attempts"))
	}

	return ctx.JSON(http.StatusOK, token)
}
