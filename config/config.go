package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Sweeper   SweeperConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// PaymentConfig configures the Paystack client. An empty SecretKey selects the dev stub.
type PaymentConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
	MinDeposit  decimal.Decimal
}

type SweeperConfig struct {
	Enabled     bool
	Schedule    string
	GraceWindow time.Duration
	BatchSize   int
	CallDelay   time.Duration
	CallTimeout time.Duration
	LockKey     string
	LockTTL     time.Duration
}

// RedisConfig is optional; when Addr is empty the sweeper runs without a distributed lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig is optional; when Brokers is empty ledger events are not published.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "wallet:wallet@tcp(localhost:3306)/wallet?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_SECRET", "change-me-in-production"),
			AccessExpiry: getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			Issuer:       getEnv("JWT_ISSUER", "walletledger"),
		},
		Payment: PaymentConfig{
			BaseURL:     getEnv("PAYMENT_BASE_URL", "https://api.paystack.co"),
			SecretKey:   os.Getenv("PAYMENT_SECRET_KEY"),
			CallbackURL: os.Getenv("PAYMENT_CALLBACK_URL"),
			Timeout:     getDuration("PAYMENT_TIMEOUT", 30*time.Second),
			MinDeposit:  getDecimal("PAYMENT_MIN_DEPOSIT", decimal.NewFromInt(100)),
		},
		Sweeper: SweeperConfig{
			Enabled:     getBool("SWEEPER_ENABLED", true),
			Schedule:    getEnv("SWEEPER_SCHEDULE", "@every 1m"),
			GraceWindow: getDuration("SWEEPER_GRACE_WINDOW", 5*time.Minute),
			BatchSize:   getInt("SWEEPER_BATCH_SIZE", 50),
			CallDelay:   getDuration("SWEEPER_CALL_DELAY", 100*time.Millisecond),
			CallTimeout: getDuration("SWEEPER_CALL_TIMEOUT", 15*time.Second),
			LockKey:     getEnv("SWEEPER_LOCK_KEY", "walletledger:sweeper"),
			LockTTL:     getDuration("SWEEPER_LOCK_TTL", 2*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "ledger.events"),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("RATE_LIMIT_REQUESTS", 120),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
