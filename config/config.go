package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/farellandr/seatbook/internal/storage/gormstore"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	defaultPort          = "8080"
	defaultCacheTTL      = 5 * time.Second
	defaultCORSOrigins   = "http://localhost:3000"
	defaultReceiptSecret = "change-me"
)

type Config struct {
	Port          string
	StorageDriver string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	ReceiptSecret string
	CORSOrigins   []string
	LogLevel      string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:          getenv("PORT", defaultPort),
		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", StorageDriverPostgres)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      defaultCacheTTL,
		ReceiptSecret: getenv("RECEIPT_SECRET", defaultReceiptSecret),
		CORSOrigins:   parseCSV(getenv("CORS_ORIGINS", defaultCORSOrigins)),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("AVAILABILITY_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("invalid AVAILABILITY_CACHE_TTL %q", raw)
		}
		cfg.CacheTTL = ttl
	}

	if len(cfg.CORSOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	for _, origin := range cfg.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return nil, fmt.Errorf("invalid CORS origin %q", origin)
		}
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// UsesDefaultReceiptSecret reports whether receipts are signed with the
// built-in placeholder key.
func (cfg *Config) UsesDefaultReceiptSecret() bool {
	return cfg.ReceiptSecret == defaultReceiptSecret
}

// DSN prefers DATABASE_URL and otherwise assembles one from the DB_* parts.
func (cfg *Config) DSN() string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := gormstore.Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func InitRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
	}

	return client, nil
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
