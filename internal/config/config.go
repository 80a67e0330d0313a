package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 通知の送り先
const (
	NotifierNone     = "none"
	NotifierKafka    = "kafka"
	NotifierRabbitMQ = "rabbitmq"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL string // 空ならPOSTGRES_*から組み立てる

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod

	RedisAddr string // 空ならキャッシュ無し

	MongoURI      string // 空ならメモリ保存（dev専用）
	MongoDB       string
	SlipBucket    string
	SlipPublicURL string

	GatewayURL       string
	GatewaySecretKey string
	GatewayCurrency  string

	Notifier      string // kafka / rabbitmq / none
	KafkaBrokers  string // カンマ区切り
	KafkaTopic    string
	RabbitMQURL   string
	RabbitMQQueue string

	NotifyTimeout     time.Duration
	ReconcileInterval time.Duration
	PaymentLeaseTTL   time.Duration
	SlipMaxBytes      int64
}

// Loadは環境変数から読む
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		GoEnv:     os.Getenv("GO_ENV"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDB:       getenv("MONGO_DB", "academy"),
		SlipBucket:    getenv("SLIP_BUCKET", "payment_slips"),
		SlipPublicURL: os.Getenv("SLIP_PUBLIC_URL"),

		GatewayURL:       os.Getenv("GATEWAY_URL"),
		GatewaySecretKey: os.Getenv("GATEWAY_SECRET_KEY"),
		GatewayCurrency:  getenv("GATEWAY_CURRENCY", "thb"),

		Notifier:      strings.ToLower(getenv("NOTIFIER", NotifierNone)),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:    getenv("KAFKA_TOPIC", "checkout-events"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		RabbitMQQueue: getenv("RABBITMQ_QUEUE", "checkout-events"),
	}

	var err error
	if cfg.DatabaseURL == "" {
		if cfg.PostgresPort, err = mustAtoi("POSTGRES_PORT"); err != nil {
			return Config{}, err
		}
	}
	if cfg.NotifyTimeout, err = durationOr("NOTIFY_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = durationOr("RECONCILE_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PaymentLeaseTTL, err = durationOr("PAYMENT_LEASE_TTL", 2*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SlipMaxBytes, err = int64Or("SLIP_MAX_BYTES", 5<<20); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.GatewayURL == "" {
		return Config{}, fmt.Errorf("GATEWAY_URL is required")
	}
	if cfg.GatewaySecretKey == "" {
		return Config{}, fmt.Errorf("GATEWAY_SECRET_KEY is required")
	}
	// 本番でスリップをメモリに置くのは事故
	if cfg.IsProduction() && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required in production")
	}

	switch cfg.Notifier {
	case NotifierNone:
	case NotifierKafka:
		if cfg.KafkaBrokers == "" {
			return Config{}, fmt.Errorf("KAFKA_BROKERS is required when NOTIFIER=kafka")
		}
	case NotifierRabbitMQ:
		if cfg.RabbitMQURL == "" {
			return Config{}, fmt.Errorf("RABBITMQ_URL is required when NOTIFIER=rabbitmq")
		}
	default:
		return Config{}, fmt.Errorf("NOTIFIER must be one of kafka, rabbitmq, none: %q", cfg.Notifier)
	}

	return cfg, nil
}

// DSNはgormに渡す接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "production" || c.GoEnv == "prod"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func int64Or(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil || i <= 0 {
		return 0, fmt.Errorf("%s must be positive number", key)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be duration like 5s", key)
	}
	return d, nil
}
