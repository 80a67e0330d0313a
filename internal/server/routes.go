package server

import (
	"academy/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はルーティングに載せるハンドラ一式
type Handlers struct {
	Health       *handler.HealthHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Coupon       *handler.CouponHandler
	AdminPayment *handler.AdminPaymentHandler
}

// auth はログイン必須のルートにかけるミドルウェア（AuthJWT → AccountContext）
func RegisterRoutes(e *echo.Echo, h Handlers, auth ...echo.MiddlewareFunc) {
	h.Health.RegisterRoutes(e)

	h.Cart.RegisterRoutes(e, auth...)
	h.Order.RegisterRoutes(e, auth...)
	h.Payment.RegisterRoutes(e, auth...)
	h.Coupon.RegisterRoutes(e, auth...)
	h.AdminPayment.RegisterRoutes(e, auth...)
}
