package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// AppConfig aggregates runtime configuration. Everything comes from the
// environment (with .env support) so nothing is hardcoded at call sites.
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	// Kafka cluster (comma separated), topic and consumer group for the
	// order status event fan-out.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox (transition handler appends, Relay forwards to
	// Kafka asynchronously).
	OrderEventStream   string
	OrderEventGroup    string
	OrderEventConsumer string

	// Checkout rate limiting.
	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration

	// Token gating the admin routes (status transitions, catalog writes).
	AdminToken string

	// Recipient for admin new-order notifications.
	AdminEmail string

	Pricing PricingConfig
}

// PricingConfig is the immutable fee/rate table injected into the pricing
// calculator. Kept explicit so the calculator stays pure and testable.
type PricingConfig struct {
	FuelSurcharge   decimal.Decimal // flat, never taxed
	ExpediteFee     decimal.Decimal // flat, taxed
	FallbackTaxRate decimal.Decimal // applied when the tax service fails or returns zero

	// Catalog prices for item types that have no per-type table.
	SignPrice        decimal.Decimal
	BrochureBoxPrice decimal.Decimal
}

// Load reads and validates configuration, applying defaults for anything
// unset. A local .env file is honored when present.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DBPath:             getEnv("DB_PATH", "sign_ops.db"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            0,
		KafkaBrokers:       splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "sign-ops-order-status"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "sign-ops-notifier"),
		OrderEventStream:   getEnv("ORDER_EVENT_STREAM", "sign_ops:order_events"),
		OrderEventGroup:    getEnv("ORDER_EVENT_GROUP", "sign-ops-relay-group"),
		OrderEventConsumer: getEnv("ORDER_EVENT_CONSUMER", "sign-ops-relay-1"),
		CheckoutRateLimit:  30,
		CheckoutRateWindow: time.Minute,
		AdminToken:         getEnv("ADMIN_TOKEN", "dev-admin-token"),
		AdminEmail:         getEnv("ADMIN_EMAIL", "ops@localhost"),
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("CHECKOUT_RATE_LIMIT", cfg.CheckoutRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CHECKOUT_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("CHECKOUT_RATE_LIMIT must be > 0")
	}
	cfg.CheckoutRateLimit = rateLimit

	windowSec, err := getEnvInt("CHECKOUT_RATE_WINDOW_SEC", int(cfg.CheckoutRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CHECKOUT_RATE_WINDOW_SEC: %w", err)
	}
	if windowSec <= 0 {
		return AppConfig{}, fmt.Errorf("CHECKOUT_RATE_WINDOW_SEC must be > 0")
	}
	cfg.CheckoutRateWindow = time.Duration(windowSec) * time.Second

	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.OrderEventStream == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_STREAM must not be empty")
	}
	if cfg.OrderEventGroup == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_GROUP must not be empty")
	}
	if cfg.OrderEventConsumer == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_CONSUMER must not be empty")
	}

	pricing, err := loadPricing()
	if err != nil {
		return AppConfig{}, err
	}
	cfg.Pricing = pricing

	return cfg, nil
}

func loadPricing() (PricingConfig, error) {
	var (
		p   PricingConfig
		err error
	)
	if p.FuelSurcharge, err = getEnvDecimal("FUEL_SURCHARGE", "2.47"); err != nil {
		return PricingConfig{}, err
	}
	if p.ExpediteFee, err = getEnvDecimal("EXPEDITE_FEE", "25.00"); err != nil {
		return PricingConfig{}, err
	}
	if p.FallbackTaxRate, err = getEnvDecimal("FALLBACK_TAX_RATE", "0.06"); err != nil {
		return PricingConfig{}, err
	}
	if p.SignPrice, err = getEnvDecimal("SIGN_PRICE", "15.00"); err != nil {
		return PricingConfig{}, err
	}
	if p.BrochureBoxPrice, err = getEnvDecimal("BROCHURE_BOX_PRICE", "10.00"); err != nil {
		return PricingConfig{}, err
	}
	if p.FuelSurcharge.IsNegative() || p.ExpediteFee.IsNegative() || p.FallbackTaxRate.IsNegative() {
		return PricingConfig{}, fmt.Errorf("pricing fees and rates must not be negative")
	}
	return p, nil
}

// getEnv reads a string env var, falling back when empty.
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt reads an integer env var, falling back when empty.
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// getEnvDecimal reads a decimal env var, falling back when empty.
func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitCSV parses a comma separated string into a slice.
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
