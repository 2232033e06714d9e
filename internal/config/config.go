package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings shared by every storefront binary. Each binary
// reads only the fields it needs.
type Config struct {
	Env      string
	LogLevel string

	GatewayPort      int
	CartServicePort  int
	OrderServicePort int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost string
	RedisPort int
	CacheTTL  time.Duration

	RabbitMQHost     string
	RabbitMQPort     int
	RabbitMQUser     string
	RabbitMQPassword string
	RabbitMQPrefetch int

	ConsulHost       string
	ConsulPort       int
	// AdvertiseAddress is the address registered in Consul. Empty means
	// the outbound interface address.
	AdvertiseAddress string

	GatewayURL      string
	CartServiceURL  string
	OrderServiceURL string
	CORSOrigins     []string

	QuantityDebounce time.Duration
	RequestTimeout   time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GatewayPort:      getEnvInt("GATEWAY_PORT", 8080),
		CartServicePort:  getEnvInt("CART_SERVICE_PORT", 8081),
		OrderServicePort: getEnvInt("ORDER_SERVICE_PORT", 8082),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "storefront"),
		DBPassword: getEnv("DB_PASSWORD", "storefront123"),
		DBName:     getEnv("DB_NAME", "storefront"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost: getEnv("REDIS_HOST", "localhost"),
		RedisPort: getEnvInt("REDIS_PORT", 6379),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnvInt("RABBITMQ_PORT", 5672),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 10),

		ConsulHost:       getEnv("CONSUL_HOST", "localhost"),
		ConsulPort:       getEnvInt("CONSUL_PORT", 8500),
		AdvertiseAddress: getEnv("ADVERTISE_ADDRESS", ""),

		GatewayURL:      getEnv("GATEWAY_URL", "http://localhost:8080"),
		CartServiceURL:  getEnv("CART_SERVICE_URL", "http://localhost:8081"),
		OrderServiceURL: getEnv("ORDER_SERVICE_URL", "http://localhost:8082"),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		QuantityDebounce: getEnvDuration("QUANTITY_DEBOUNCE", 800*time.Millisecond),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
