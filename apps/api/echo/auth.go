package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/user"
)

const contextUserKey = "user"

// authSchemes are the accepted prefixes of the Authorization header.
var authSchemes = []string{"Token", "Bearer"}

func tokenFromHeader(header string) (string, bool) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	for _, s := range authSchemes {
		if strings.EqualFold(scheme, s) {
			key = strings.TrimSpace(key)
			return key, key != ""
		}
	}
	return "", false
}

// authMiddleware resolves the request's bearer token to its User and stores it in the echo.Context.
func authMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			key, ok := tokenFromHeader(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errUnauthorized
			}
			usr, err := svc.GetByToken(ctx.Request().Context(), key)
			if err != nil {
				if errors.Cause(err) == user.ErrInvalidToken {
					return errInvalidToken
				}
				return errors.Wrap(err, "getting user by token")
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
