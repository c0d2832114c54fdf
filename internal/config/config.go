package config

import (
	"log"
	"os"
	"strconv"

	"voko-backend/internal/money"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	LogLevel    string

	// Order round scheduling. A new round opens every IntervalWeeks at
	// OpenHour, closes OrderOpenDays later and is collected CollectDays
	// after opening at CollectHour.
	RoundIntervalWeeks int
	RoundOrderOpenDays int
	RoundCollectDays   int
	RoundOpenHour      int
	RoundCollectHour   int

	// Defaults copied onto newly created rounds.
	MarkupPercentage decimal.Decimal
	TransactionCosts decimal.Decimal

	// Yearly membership fee, debited by an admin through the ledger.
	MemberFee decimal.Decimal

	// iDeal payment gateway.
	GatewayBaseURL   string
	GatewayMerchant  string
	GatewaySecret    string
	GatewayReturnURL string
}

func Load() *Config {
	// Missing .env is fine, plain environment variables still apply.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=voko port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RoundIntervalWeeks: getEnvInt("ROUND_INTERVAL_WEEKS", 2),
		RoundOrderOpenDays: getEnvInt("ROUND_ORDER_OPEN_DAYS", 5),
		RoundCollectDays:   getEnvInt("ROUND_COLLECT_DAYS", 7),
		RoundOpenHour:      getEnvInt("ROUND_OPEN_HOUR", 12),
		RoundCollectHour:   getEnvInt("ROUND_COLLECT_HOUR", 18),

		MarkupPercentage: getEnvDecimal("MARKUP_PERCENTAGE", "7.0"),
		TransactionCosts: getEnvDecimal("TRANSACTION_COSTS", "0.35"),
		MemberFee:        getEnvDecimal("MEMBER_FEE", "25.00"),

		GatewayBaseURL:   getEnv("IDEAL_GATEWAY_URL", "https://gateway.example.com/api"),
		GatewayMerchant:  getEnv("IDEAL_MERCHANT_ID", ""),
		GatewaySecret:    getEnv("IDEAL_MERCHANT_SECRET", ""),
		GatewayReturnURL: getEnv("IDEAL_RETURN_URL", "http://localhost:5173/betaling/klaar"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set, refusing to start")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.GatewayMerchant == "" || cfg.GatewaySecret == "" {
		log.Println("[WARN] iDeal gateway credentials are not set, checkout will fail")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("[FATAL] %s must be an integer, got %q", key, v)
	}
	return n
}

func getEnvDecimal(key, def string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	d, err := money.Parse(v)
	if err != nil {
		log.Fatalf("[FATAL] %s must be a decimal amount, got %q", key, v)
	}
	return d
}
