// Package app はcmd/api と cmd/reconciler が共有する組み立て処理。
package app

import (
	"context"
	"errors"
	"fmt"

	"academy/internal/config"
	"academy/internal/infra/cache"
	"academy/internal/infra/db"
	"academy/internal/infra/gateway"
	"academy/internal/infra/metrics"
	"academy/internal/infra/notifier"
	infraRepo "academy/internal/infra/repository"
	"academy/internal/infra/storage"
	repo "academy/internal/repository"
	"academy/internal/usecase"
	"academy/internal/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App は起動に必要な部品一式
type App struct {
	Config   config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Redis    *redis.Client // REDIS_ADDR が空なら nil
	Mongo    *mongo.Client // MONGO_URI が空なら nil
	Registry *prometheus.Registry

	Accounts   repo.AccountRepository
	Dispatcher *usecase.Dispatcher

	Cart       *usecase.CartUsecase
	Order      *usecase.OrderUsecase
	Card       *usecase.CardPaymentUsecase
	Bank       *usecase.BankTransferUsecase
	Admin      *usecase.AdminPaymentUsecase
	Coupon     *usecase.CouponUsecase
	Reconciler *usecase.ReconcileUsecase

	closers []func() error
}

// Build は外部への接続を張って usecase まで組み立てる。
// 途中で失敗したら開いたものは閉じる。
func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Log: log, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckout(a.Registry)

	//DB接続
	a.DB, err = db.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err = db.Migrate(a.DB); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if sqlDB, e := a.DB.DB(); e == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	//Repository（GORM実装）生成
	carts := infraRepo.NewCartGormRepository(a.DB)
	cartItems := infraRepo.NewCartItemGormRepository(a.DB)
	coupons := infraRepo.NewCouponGormRepository(a.DB)
	orders := infraRepo.NewOrderGormRepository(a.DB)
	orderItems := infraRepo.NewOrderItemGormRepository(a.DB)
	payments := infraRepo.NewPaymentGormRepository(a.DB)
	enrollments := infraRepo.NewEnrollmentGormRepository(a.DB)
	txm := infraRepo.NewTxManagerGorm(a.DB)
	a.Accounts = infraRepo.NewAccountGormRepository(a.DB)

	if cfg.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, a.Redis.Close)
	}
	browse, pricing := catalogRepos(a.DB, a.Redis, log)

	//明細の保存先
	var objects usecase.ObjectStorage
	if cfg.MongoURI != "" {
		a.Mongo, err = storage.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return a.Mongo.Disconnect(context.Background()) })
		gfs, e := storage.NewGridFSStorage(a.Mongo.Database(cfg.MongoDB), cfg.SlipBucket, cfg.SlipPublicURL)
		if e != nil {
			return nil, e
		}
		objects = gfs
	} else {
		log.Warn("MONGO_URI is empty; slips are kept in memory")
		objects = storage.NewMemoryStorage()
	}

	n, closeN, err := buildNotifier(cfg, log)
	if err != nil {
		return nil, err
	}
	if closeN != nil {
		a.closers = append(a.closers, closeN)
	}
	a.Dispatcher = usecase.NewDispatcher(n, cfg.NotifyTimeout, log, checkoutMetrics)

	gw := gateway.NewClient(gateway.ClientConfig{
		BaseURL:   cfg.GatewayURL,
		SecretKey: cfg.GatewaySecretKey,
		Currency:  cfg.GatewayCurrency,
	})

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	ids := usecase.UUIDGenerator{}

	//Usecase生成
	settlement := usecase.NewSettlementUsecase(orders, orderItems, enrollments, coupons, carts, cartItems, a.Dispatcher, log, checkoutMetrics)
	paymentValidator := usecase.NewPaymentValidator(orders, orderItems, payments, clock, ids, cfg.PaymentLeaseTTL)

	a.Cart = usecase.NewCartUsecase(carts, cartItems, browse, clock)
	a.Order = usecase.NewOrderUsecase(txm, pricing, carts, cartItems, clock)
	a.Card = usecase.NewCardPaymentUsecase(paymentValidator, orders, payments, gw, settlement, log, checkoutMetrics)
	a.Bank = usecase.NewBankTransferUsecase(paymentValidator, payments, validator.NewSlipValidator(cfg.SlipMaxBytes), objects, a.Dispatcher, log, checkoutMetrics)
	a.Admin = usecase.NewAdminPaymentUsecase(txm, payments, orders, settlement, clock, log)
	a.Coupon = usecase.NewCouponUsecase(coupons, clock)
	a.Reconciler = usecase.NewReconcileUsecase(payments, orders, gw, settlement, clock, log)

	return a, nil
}

// カート表示はredisの読み込みキャッシュ越しでよいが、注文の価格はその時点の値が要るので常にDBを読む
func catalogRepos(gdb *gorm.DB, rdb *redis.Client, log *zap.Logger) (browse repo.CourseRepository, pricing repo.CourseRepository) {
	pricing = infraRepo.NewCourseGormRepository(gdb)
	if rdb == nil {
		return pricing, pricing
	}
	return cache.NewCourseCache(pricing, rdb, 0, log), pricing
}

func buildNotifier(cfg config.Config, log *zap.Logger) (usecase.Notifier, func() error, error) {
	switch cfg.Notifier {
	case config.NotifierKafka:
		k := notifier.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		return k, k.Close, nil
	case config.NotifierRabbitMQ:
		r, err := notifier.NewRabbitMQNotifier(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return notifier.NewLogNotifier(log), nil, nil
	}
}

// Close は未送信の通知を待ってから接続を閉じる
func (a *App) Close(ctx context.Context) error {
	if a.Dispatcher != nil {
		done := make(chan struct{})
		go func() {
			a.Dispatcher.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.Log.Warn("gave up waiting for notifications", zap.Error(ctx.Err()))
		}
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
