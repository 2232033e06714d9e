package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("QUANTITY_DEBOUNCE", "")
	t.Setenv("CART_SERVICE_PORT", "")

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8081, cfg.CartServicePort)
	assert.Equal(t, 800*time.Millisecond, cfg.QuantityDebounce)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CART_SERVICE_PORT", "9091")
	t.Setenv("QUANTITY_DEBOUNCE", "250ms")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, http://localhost:3000 ,")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 9091, cfg.CartServicePort)
	assert.Equal(t, 250*time.Millisecond, cfg.QuantityDebounce)
	assert.Equal(t, []string{"https://shop.example.com", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("REQUEST_TIMEOUT", "-5s")

	cfg := Load()

	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}
