package middleware

import (
	"errors"
	"net/http"

	"academy/internal/repository"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AccountContextはJWTのtvとDBのtoken_versionの一致を確認して、
// アカウントのロールとロケールをcontextに入れ直す。
// ロールはトークンよりDBを信じる。
func AccountContext(accounts repository.AccountRepository, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			acc, err := accounts.FindByID(c.Request().Context(), userID)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if err != nil {
				log.Error("load account failed", zap.Int64("user_id", userID), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, errorJSON("internal server error"))
			}

			//token_version が一致しなければ強制ログアウト扱い（401）
			if acc.TokenVersion != tv || !acc.IsActive {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserRoleKey, string(acc.Role))
			c.Set(CtxLocaleKey, acc.Locale)

			return next(c)
		}
	}
}
