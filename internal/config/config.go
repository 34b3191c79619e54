package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Store backend: postgres DSN wins when set, otherwise the embedded
	// sqlite file at SQLitePath is used.
	PGDSN        string
	SQLitePath   string
	StoreTimeout time.Duration
	RunMigration bool

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	// Termii-compatible SMS gateway; the feature is off when the key is empty.
	SMSAPIKey   string
	SMSEndpoint string
	SMSSender   string

	OTPTTL     time.Duration
	SessionTTL time.Duration

	NotifyPageSize int

	LogLevel string
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		SQLitePath:      "agromath.db",
		StoreTimeout:    5 * time.Second,
		KafkaTopic:      "order-events",
		SMSEndpoint:     "https://api.ng.termii.com/api/sms/send",
		SMSSender:       "AgroMath",
		OTPTTL:          10 * time.Minute,
		SessionTTL:      24 * time.Hour,
		NotifyPageSize:  25,
		LogLevel:        "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.PGDSN = os.Getenv("PG_DSN")
	setStringFromEnv(&cfg.SQLitePath, "SQLITE_PATH")
	setDurationFromEnv(&cfg.StoreTimeout, "STORE_TIMEOUT", &errs)
	cfg.RunMigration = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.SMSAPIKey = os.Getenv("TERMII_API_KEY")
	setStringFromEnv(&cfg.SMSEndpoint, "SMS_ENDPOINT")
	setStringFromEnv(&cfg.SMSSender, "SMS_SENDER")

	setDurationFromEnv(&cfg.OTPTTL, "OTP_TTL", &errs)
	setDurationFromEnv(&cfg.SessionTTL, "SESSION_TTL", &errs)

	setIntFromEnv(&cfg.NotifyPageSize, "NOTIFY_PAGE_SIZE", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.NotifyPageSize <= 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_PAGE_SIZE must be > 0"))
	}
	if cfg.StoreTimeout <= 0 {
		errs = append(errs, fmt.Errorf("STORE_TIMEOUT must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
