package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ==================== 配置定义 ====================

// Config 服务配置，全部来自环境变量（支持 .env 文件）
type Config struct {
	// HTTP
	ServerPort string
	GinMode    string

	// 数据库
	DatabaseDSN string
	DBDebug     bool

	// JWT
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// 支付渠道（Stripe 兼容 API）
	StripeSecretKey string
	StripeBaseURL   string
	StripeTimeout   time.Duration

	// 下载分发（S3 私有桶，签名 URL）
	StorageBucket    string
	StorageRegion    string
	StorageAccessKey string
	StorageSecretKey string

	// 对账任务
	ReconcileEnabled bool
	ReconcileMinAge  time.Duration // 意向至少挂起多久才参与对账
	ReconcileBatch   int
}

// Load 加载配置
// .env 不存在不算错误，线上直接注入环境变量
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),

		DatabaseDSN: getEnv("DATABASE_DSN",
			"host=localhost user=appstore password=appstore dbname=appstore port=5432 sslmode=disable"),
		DBDebug: getEnvBool("DB_DEBUG", true),

		JWTSecret:       getEnv("JWT_SECRET", "appstore-secret-key-change-in-production"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 2*time.Hour),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		StripeBaseURL:   getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeTimeout:   getEnvDuration("STRIPE_TIMEOUT", 15*time.Second),

		StorageBucket:    getEnv("AWS_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "us-east-1"),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		ReconcileEnabled: getEnvBool("RECONCILE_ENABLED", true),
		ReconcileMinAge:  getEnvDuration("RECONCILE_MIN_AGE", 15*time.Minute),
		ReconcileBatch:   getEnvInt("RECONCILE_BATCH", 100),
	}
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
