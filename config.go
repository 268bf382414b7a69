package main

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/samgozman/fin-buddy/broker"
	"github.com/spf13/viper"
)

// Env is a structure that holds all the environment variables that are used in the app.
type Env struct {
	StockSymbols string `mapstructure:"STOCK_SYMBOLS" default:"TSLA,AAPL,GOOGL,MSFT,AMZN,NVDA" validate:"required"`

	NewsAPIKey      string `mapstructure:"NEWSAPI_KEY"`
	FinnhubKey      string `mapstructure:"FINNHUB_KEY"`
	AlphaVantageKey string `mapstructure:"ALPHA_VANTAGE_KEY"`
	IEXToken        string `mapstructure:"IEX_TOKEN"`
	AllowDemoKeys   bool   `mapstructure:"ALLOW_DEMO_KEYS" default:"false"`

	QuoteAttempts  uint          `mapstructure:"QUOTE_ATTEMPTS" default:"5" validate:"min=1,max=10"`
	QuoteDelayBase time.Duration `mapstructure:"QUOTE_DELAY_BASE" default:"10s" validate:"gte=0"`
	QuoteDelayStep time.Duration `mapstructure:"QUOTE_DELAY_STEP" default:"5s" validate:"gte=0"`
	QuoteJitterMax time.Duration `mapstructure:"QUOTE_JITTER_MAX" default:"5s" validate:"gte=0,ltefield=QuoteDelayStep"`
	RateLimitUnit  time.Duration `mapstructure:"RATE_LIMIT_UNIT" default:"10s" validate:"gte=0"`
	MalformedBase  time.Duration `mapstructure:"MALFORMED_BASE" default:"5s" validate:"gte=0"`
	MalformedStep  time.Duration `mapstructure:"MALFORMED_STEP" default:"5s" validate:"gte=0"`
	TransientDelay time.Duration `mapstructure:"TRANSIENT_DELAY" default:"3s" validate:"gte=0"`
	Cooldown       time.Duration `mapstructure:"COOLDOWN" default:"5m" validate:"gt=0"`
	MinSpacing     time.Duration `mapstructure:"MIN_SPACING" default:"30s" validate:"gte=0"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT" default:"15s" validate:"gt=0"`

	QuoteSymbolDelay time.Duration `mapstructure:"QUOTE_SYMBOL_DELAY" default:"60s" validate:"gte=0"`
	QuotePassDelay   time.Duration `mapstructure:"QUOTE_PASS_DELAY" default:"30m" validate:"gte=0"`
	NewsSymbolDelay  time.Duration `mapstructure:"NEWS_SYMBOL_DELAY" default:"30s" validate:"gte=0"`
	NewsPassDelay    time.Duration `mapstructure:"NEWS_PASS_DELAY" default:"1h" validate:"gte=0"`

	RandomSeed int64  `mapstructure:"RANDOM_SEED" default:"0"`
	HTTPAddr   string `mapstructure:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel   string `mapstructure:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	SentryDSN  string `mapstructure:"SENTRY_DSN"`

	ArchiveBackend       string        `mapstructure:"ARCHIVE_BACKEND" default:"none" validate:"oneof=none postgres redis"`
	PostgresDSN          string        `mapstructure:"POSTGRES_DSN" validate:"required_if=ArchiveBackend postgres"`
	RedisAddr            string        `mapstructure:"REDIS_ADDR" validate:"required_if=ArchiveBackend redis"`
	ArchiveFlushInterval time.Duration `mapstructure:"ARCHIVE_FLUSH_INTERVAL" default:"5m" validate:"gt=0"`
}

// Symbols returns the configured universe, upper cased, without blanks or duplicates.
func (e *Env) Symbols() []string {
	symbols := lo.Map(strings.Split(e.StockSymbols, ","), func(s string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(s))
	})
	return lo.Uniq(lo.Compact(symbols))
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (e *Env) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// BrokerConfig returns the retry and cooldown parameters of the quote broker.
func (e *Env) BrokerConfig() broker.Config {
	return broker.Config{
		Attempts:       int(e.QuoteAttempts),
		DelayBase:      e.QuoteDelayBase,
		DelayStep:      e.QuoteDelayStep,
		JitterMax:      e.QuoteJitterMax,
		RateLimitUnit:  e.RateLimitUnit,
		MalformedBase:  e.MalformedBase,
		MalformedStep:  e.MalformedStep,
		TransientDelay: e.TransientDelay,
		Cooldown:       e.Cooldown,
		MinSpacing:     e.MinSpacing,
	}
}

// AlphaVantageQuoteKey returns the key of the AlphaVantage quote fallback, the public demo key
// when demo keys are allowed, or "" when the slot is disabled.
func (e *Env) AlphaVantageQuoteKey() string {
	if e.AlphaVantageKey != "" {
		return e.AlphaVantageKey
	}
	if e.AllowDemoKeys {
		return broker.AlphaVantageDemoKey
	}
	return ""
}

// IEXQuoteToken is AlphaVantageQuoteKey for IEX Cloud.
func (e *Env) IEXQuoteToken() string {
	if e.IEXToken != "" {
		return e.IEXToken
	}
	if e.AllowDemoKeys {
		return broker.IEXDemoToken
	}
	return ""
}

var errInvalidConfig = errors.New("invalid configuration")

// loadEnv reads the optional .env file, applies defaults, overrides them from the
// environment and validates the result.
func loadEnv(files ...string) (*Env, error) {
	// A missing .env file is fine, the environment is the source of truth.
	_ = godotenv.Load(files...)

	env := &Env{}
	if err := defaults.Set(env); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	for _, key := range envKeys(env) {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
		}
	}

	// Only keys present in the environment are decoded, the defaults stay in place.
	settings := lo.PickBy(v.AllSettings(), func(_ string, value any) bool {
		return value != nil
	})
	overrides := viper.New()
	if err := overrides.MergeConfigMap(settings); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	if err := overrides.Unmarshal(env); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	if err := validator.New().Struct(env); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	return env, nil
}

// envKeys lists the mapstructure tags of Env.
func envKeys(env *Env) []string {
	t := reflect.TypeOf(env).Elem()
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
