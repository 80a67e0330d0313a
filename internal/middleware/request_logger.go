package middleware

import (
	"strconv"
	"time"

	"academy/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLoggerは1リクエスト1行のアクセスログを出す。
// m が nil ならメトリクスは取らない。
func RequestLogger(log *zap.Logger, m *metrics.ServerMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// echo の HTTPError などはここでレスポンスにする
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			elapsed := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Int64("bytes_out", res.Size),
				zap.Duration("latency", elapsed),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if uid, ok := UserID(c); ok {
				fields = append(fields, zap.Int64("user_id", uid))
			}

			switch {
			case res.Status >= 500:
				log.Error("request", fields...)
			case res.Status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}

			if m != nil {
				m.Requests.WithLabelValues(c.Path(), strconv.Itoa(res.Status)).Inc()
				m.LatencyMS.WithLabelValues(c.Path()).Observe(float64(elapsed.Milliseconds()))
			}
			return nil
		}
	}
}
