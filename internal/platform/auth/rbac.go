package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects callers holding none of roles. Admin passes every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasRole(RolesFromContext(c.Request().Context()), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "required role: "+strings.Join(roles, " or "))
		}
	}
}

// HasRole reports whether held contains admin or any of wanted.
func HasRole(held []string, wanted ...string) bool {
	if slices.Contains(held, RoleAdmin) {
		return true
	}
	for _, w := range wanted {
		if slices.Contains(held, w) {
			return true
		}
	}
	return false
}
