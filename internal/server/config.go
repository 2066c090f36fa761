// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the relay.
package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// History backends accepted by HISTORY_BACKEND.
const (
	HistoryMemory = "memory"
	HistoryBadger = "badger"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Config holds the server configuration settings including security controls.
type Config struct {
	Host           string `env:"HOST,default=0.0.0.0"`
	Port           int    `env:"PORT,default=5000" validate:"min=1,max=65535"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=http://localhost:5000"`

	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=4096" validate:"gt=0"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256" validate:"gt=0"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST,default=5" validate:"gt=0"`
	RateLimitRefill time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s" validate:"gt=0"`

	HistoryBackend string        `env:"HISTORY_BACKEND,default=memory" validate:"oneof=memory badger"`
	HistoryLimit   int           `env:"HISTORY_LIMIT,default=1000" validate:"gte=0"`
	HistoryTTL     time.Duration `env:"HISTORY_TTL,default=0s" validate:"gte=0"`

	Palette         string `env:"PALETTE"`
	CensoredWords   string `env:"CENSORED_WORDS"`
	CensorCharacter string `env:"CENSOR_CHARACTER,default=*" validate:"len=1"`

	LogLevel        string        `env:"LOG_LEVEL,default=info" validate:"oneof=trace debug info warn error"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            5000,
		AllowedOrigins:  "http://localhost:5000",
		MaxMessageSize:  4096,
		SendBufferSize:  256,
		RateLimitBurst:  5,
		RateLimitRefill: time.Second,
		HistoryBackend:  HistoryMemory,
		HistoryLimit:    1000,
		CensorCharacter: "*",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// withDefaults fills zero values the same way the environment defaults do,
// so hand-built configs behave like loaded ones.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = d.SendBufferSize
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = d.RateLimitBurst
	}
	if c.RateLimitRefill <= 0 {
		c.RateLimitRefill = d.RateLimitRefill
	}
	if c.HistoryBackend == "" {
		c.HistoryBackend = d.HistoryBackend
	}
	if c.CensorCharacter == "" {
		c.CensorCharacter = d.CensorCharacter
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins splits ALLOWED_ORIGINS into trimmed, non-empty entries.
func (c Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// Words splits CENSORED_WORDS into trimmed, non-empty entries.
func (c Config) Words() []string {
	return splitList(c.CensoredWords)
}

// CensorRune returns the mask character.
func (c Config) CensorRune() rune {
	r := []rune(c.CensorCharacter)
	if len(r) == 0 {
		return '*'
	}
	return r[0]
}

func splitList(value string) []string {
	return lo.Compact(lo.Map(strings.Split(value, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
