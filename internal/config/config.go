package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	RedisAddr     string
	CartTTL       time.Duration
	CSRFEnabled   bool
	PublicBaseURL string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	PaymentURL    string
	PaymentAPIKey string
	Currency      string

	// CheckoutURL points the session cart at a remote checkout endpoint;
	// empty means the in-process service is called.
	CheckoutURL string

	OTELEnabled bool
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v; using system environment", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "plantshop"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: databaseURL(),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:        time.Duration(EnvIntDefault("ACCESS_TTL_MINUTES", 15)) * time.Minute,
		RefreshTTL:       time.Duration(EnvIntDefault("REFRESH_TTL_HOURS", 7*24)) * time.Hour,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		CartTTL:       time.Duration(EnvIntDefault("CART_TTL_HOURS", 30*24)) * time.Hour,
		CSRFEnabled:   EnvBoolDefault("CSRF_ENABLED", true),
		PublicBaseURL: strings.TrimRight(EnvDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "plants"),

		PaymentURL:    os.Getenv("PAYMENT_URL"),
		PaymentAPIKey: os.Getenv("PAYMENT_API_KEY"),
		Currency:      EnvDefault("PAYMENT_CURRENCY", "usd"),

		CheckoutURL: os.Getenv("CHECKOUT_URL"),

		OTELEnabled: EnvBoolDefault("OTEL_ENABLED", false),
	}
}

func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		EnvDefault("DB_PORT", "5432"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		EnvDefault("DB_SSLMODE", "disable"),
	)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
