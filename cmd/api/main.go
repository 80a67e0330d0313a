package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"academy/internal/app"
	"academy/internal/config"
	"academy/internal/handler"
	"academy/internal/infra/logging"
	"academy/internal/infra/metrics"
	"academy/internal/middleware"
	"academy/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("build app failed", zap.Error(err))
	}

	//Handler生成
	h := server.Handlers{
		Health:       handler.NewHealthHandler(healthChecks(a), metrics.Handler(a.Registry)),
		Cart:         handler.NewCartHandler(a.Cart),
		Order:        handler.NewOrderHandler(a.Order),
		Payment:      handler.NewPaymentHandler(a.Card, a.Bank, cfg.SlipMaxBytes),
		Coupon:       handler.NewCouponHandler(a.Coupon),
		AdminPayment: handler.NewAdminPaymentHandler(a.Admin),
	}

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	srv := server.New(server.Options{
		Addr:    addr,
		Log:     log,
		Metrics: metrics.NewServerMetrics(a.Registry, "api"),
	}, h,
		middleware.AuthJWT(cfg.JWTSecret),
		middleware.AccountContext(a.Accounts, log),
	)

	//Server起動
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	//送りかけの通知を待ってから閉じる
	if err := a.Close(shutdownCtx); err != nil {
		log.Error("close app", zap.Error(err))
	}
}

func healthChecks(a *app.App) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"postgres": handler.PingFunc(func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if a.Redis != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		})
	}
	if a.Mongo != nil {
		checks["mongo"] = handler.PingFunc(func(ctx context.Context) error {
			return a.Mongo.Ping(ctx, nil)
		})
	}
	return checks
}
