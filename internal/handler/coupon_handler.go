package handler

import (
	"context"
	"net/http"
	"strconv"

	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CouponQuoter interface {
	Quote(ctx context.Context, code string, orderAmount int64) (usecase.CouponQuote, error)
}

// 表示用のクーポン見積もり。注文の金額は変えない
type CouponHandler struct {
	uc CouponQuoter
}

func NewCouponHandler(uc CouponQuoter) *CouponHandler {
	return &CouponHandler{uc: uc}
}

func (h *CouponHandler) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	g := e.Group("/coupons", auth...)
	g.GET("/:code/quote", h.quote)
}

func (h *CouponHandler) quote(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return badRequest(c, "code is required")
	}

	amount, err := strconv.ParseInt(c.QueryParam("amount"), 10, 64)
	if err != nil || amount < 0 {
		return badRequest(c, "invalid amount")
	}

	out, err := h.uc.Quote(c.Request().Context(), code, amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
