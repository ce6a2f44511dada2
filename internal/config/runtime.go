package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAddr            = ":8080"
	defaultDatabaseURL     = "tableside.db"
	defaultTaxRateBps      = "1000" // 10%
	defaultReservationSlot = "90m"
)

type RuntimeConfig struct {
	AppEnv      string
	Addr        string
	DatabaseURL string
	AMQPURL     string

	// TaxRateBps is the tax rate in basis points (1000 = 10%).
	TaxRateBps int64

	// DefaultReservationDuration is used when a booking request omits the
	// duration.
	DefaultReservationDuration time.Duration
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Addr = strings.TrimSpace(getEnv("ADDR", defaultAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))

	var err error
	cfg.TaxRateBps, err = parseInt64Env("TAX_RATE_BPS", defaultTaxRateBps)
	if err != nil {
		return nil, err
	}

	cfg.DefaultReservationDuration, err = parseDurationEnv("RESERVATION_DEFAULT_DURATION", defaultReservationSlot)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *RuntimeConfig) error {
	if cfg.TaxRateBps < 0 || cfg.TaxRateBps > 10000 {
		return fmt.Errorf("TAX_RATE_BPS must be between 0 and 10000")
	}
	if cfg.DefaultReservationDuration < 15*time.Minute {
		return fmt.Errorf("RESERVATION_DEFAULT_DURATION must be at least 15m")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func parseInt64Env(key, def string) (int64, error) {
	raw := getEnv(key, def)
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return n, nil
}
