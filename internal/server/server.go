package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"academy/internal/infra/metrics"
	appmw "academy/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Options struct {
	Addr string
	// multipart の明細を含めたリクエスト上限（例 "6M"）
	BodyLimit string
	Log       *zap.Logger
	Metrics   *metrics.ServerMetrics
}

type Server struct {
	echo *echo.Echo
	http *http.Server
	log  *zap.Logger
}

func New(opts Options, h Handlers, auth ...echo.MiddlewareFunc) *Server {
	if opts.BodyLimit == "" {
		opts.BodyLimit = "6M"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(appmw.RequestLogger(opts.Log, opts.Metrics))
	e.Use(echomw.BodyLimit(opts.BodyLimit))

	RegisterRoutes(e, h, auth...)

	return &Server{
		echo: e,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           otelhttp.NewHandler(e, "academy-api"),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: opts.Log,
	}
}

// Echo はテスト用
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start は Shutdown されるまでブロックする
func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
