package middleware

import (
	"net/http"

	"academy/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// 決済スリップの審査ルート用。AccountContextの後ろに置く
func AdminRoleGuard() echo.MiddlewareFunc {
	return requireRole(model.RoleAdmin)
}

func requireRole(allowed ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			for _, r := range allowed {
				if model.Role(role) == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
		}
	}
}
