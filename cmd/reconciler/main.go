package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"academy/internal/app"
	"academy/internal/config"
	"academy/internal/infra/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// 決済成功のまま止まった注文の確定と、pendingのカード決済の照合を定期的に回す
func main() {
	once := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

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
	log = log.Named("reconciler")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("build app failed", zap.Error(err))
	}

	if *once {
		rep, err := a.Reconciler.RunOnce(ctx)
		if err != nil {
			log.Error("reconcile failed", zap.Error(err))
		} else {
			log.Info("reconcile done",
				zap.Int("settled", rep.Settled),
				zap.Int("charges_closed", rep.ChargesClosed),
				zap.Int("failed", rep.Failed))
		}
	} else {
		log.Info("reconciler started", zap.Duration("interval", cfg.ReconcileInterval))
		a.Reconciler.Run(ctx, cfg.ReconcileInterval)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		log.Error("close app", zap.Error(err))
	}
}
