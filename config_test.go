package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samgozman/fin-buddy/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_defaults(t *testing.T) {
	env, err := loadEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, []string{"TSLA", "AAPL", "GOOGL", "MSFT", "AMZN", "NVDA"}, env.Symbols())
	assert.Equal(t, uint(5), env.QuoteAttempts)
	assert.Equal(t, 10*time.Second, env.QuoteDelayBase)
	assert.Equal(t, 5*time.Minute, env.Cooldown)
	assert.Equal(t, 60*time.Second, env.QuoteSymbolDelay)
	assert.Equal(t, 30*time.Minute, env.QuotePassDelay)
	assert.Equal(t, time.Hour, env.NewsPassDelay)
	assert.Equal(t, ":8080", env.HTTPAddr)
	assert.Equal(t, "none", env.ArchiveBackend)
	assert.Equal(t, slog.LevelInfo, env.SlogLevel())
}

func TestLoadEnv_overrides(t *testing.T) {
	t.Setenv("STOCK_SYMBOLS", "msft, nvda,,MSFT")
	t.Setenv("QUOTE_ATTEMPTS", "3")
	t.Setenv("QUOTE_DELAY_STEP", "2s")
	t.Setenv("QUOTE_JITTER_MAX", "1s")
	t.Setenv("ALLOW_DEMO_KEYS", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ARCHIVE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	env, err := loadEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, []string{"MSFT", "NVDA"}, env.Symbols())
	assert.Equal(t, uint(3), env.QuoteAttempts)
	assert.Equal(t, 2*time.Second, env.QuoteDelayStep)
	assert.Equal(t, time.Second, env.QuoteJitterMax)
	assert.True(t, env.AllowDemoKeys)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
	assert.Equal(t, "localhost:6379", env.RedisAddr)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, env.QuoteDelayBase)
}

func TestLoadEnv_dotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9191\n"), 0o600))
	// godotenv never overrides a variable that is already set, register it for cleanup first
	t.Setenv("HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))

	env, err := loadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, ":9191", env.HTTPAddr)
}

func TestLoadEnv_invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "jitter above step", env: map[string]string{"QUOTE_DELAY_STEP": "1s", "QUOTE_JITTER_MAX": "2s"}},
		{name: "zero attempts", env: map[string]string{"QUOTE_ATTEMPTS": "0"}},
		{name: "too many attempts", env: map[string]string{"QUOTE_ATTEMPTS": "11"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "unknown backend", env: map[string]string{"ARCHIVE_BACKEND": "mongo"}},
		{name: "postgres without dsn", env: map[string]string{"ARCHIVE_BACKEND": "postgres"}},
		{name: "redis without address", env: map[string]string{"ARCHIVE_BACKEND": "redis"}},
		{name: "zero cooldown", env: map[string]string{"COOLDOWN": "0s"}},
		{name: "not a duration", env: map[string]string{"MIN_SPACING": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadEnv(filepath.Join(t.TempDir(), "missing.env"))
			assert.ErrorIs(t, err, errInvalidConfig)
		})
	}
}

func TestEnv_Symbols(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "plain", input: "TSLA,AAPL", expect: []string{"TSLA", "AAPL"}},
		{name: "spaces and case", input: " tsla , Aapl ", expect: []string{"TSLA", "AAPL"}},
		{name: "duplicates keep first position", input: "AAPL,TSLA,aapl", expect: []string{"AAPL", "TSLA"}},
		{name: "blanks dropped", input: ",,NVDA,", expect: []string{"NVDA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Env{StockSymbols: tt.input}
			assert.Equal(t, tt.expect, e.Symbols())
		})
	}
}

func TestEnv_quoteKeys(t *testing.T) {
	tests := []struct {
		name    string
		env     Env
		wantAV  string
		wantIEX string
	}{
		{name: "no keys, no demo", env: Env{}, wantAV: "", wantIEX: ""},
		{name: "demo keys allowed", env: Env{AllowDemoKeys: true}, wantAV: broker.AlphaVantageDemoKey, wantIEX: broker.IEXDemoToken},
		{name: "real keys win", env: Env{AlphaVantageKey: "av", IEXToken: "iex", AllowDemoKeys: true}, wantAV: "av", wantIEX: "iex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAV, tt.env.AlphaVantageQuoteKey())
			assert.Equal(t, tt.wantIEX, tt.env.IEXQuoteToken())
		})
	}
}

func TestEnv_BrokerConfig(t *testing.T) {
	e := &Env{QuoteAttempts: 4, QuoteDelayBase: time.Second, Cooldown: time.Minute, MinSpacing: 3 * time.Second}

	cfg := e.BrokerConfig()

	assert.Equal(t, 4, cfg.Attempts)
	assert.Equal(t, time.Second, cfg.DelayBase)
	assert.Equal(t, time.Minute, cfg.Cooldown)
	assert.Equal(t, 3*time.Second, cfg.MinSpacing)
}
