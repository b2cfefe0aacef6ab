package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// Ledger backends accepted by LEDGER_BACKEND.
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

// Settings is the runtime configuration of the service.
type Settings struct {
	Port                string
	LogLevel            slog.Level
	HealthCheckInterval time.Duration
	HistoryWindow       time.Duration
	Gateways            []model.GatewayConfig

	LedgerBackend  string
	RedisAddr      string
	RedisKeyPrefix string

	SimulationFailureRate float64
	SimulationMinDelay    time.Duration
	SimulationMaxDelay    time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads an optional .env file and then the process environment.
// Malformed values are reported together rather than silently replaced by defaults.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds Settings from the given lookup function.
func FromEnv(lookup func(string) (string, bool)) (Settings, error) {
	env := envReader{lookup: lookup}

	s := Settings{
		Port:                  strings.TrimPrefix(env.String("PORT", ServerPort), ":"),
		LogLevel:              env.Level("LOG_LEVEL", slog.LevelInfo),
		HealthCheckInterval:   env.Duration("HEALTH_CHECK_INTERVAL", HealthCheckInterval),
		HistoryWindow:         env.Duration("HISTORY_WINDOW", HistoryWindow),
		LedgerBackend:         strings.ToLower(env.String("LEDGER_BACKEND", LedgerMemory)),
		RedisAddr:             env.String("REDIS_ADDR", "localhost:6379"),
		RedisKeyPrefix:        env.String("REDIS_KEY_PREFIX", "nimbus"),
		SimulationFailureRate: env.Float("SIMULATION_FAILURE_RATE", SimulationFailureRate),
		SimulationMinDelay:    env.Duration("SIMULATION_MIN_DELAY", SimulationMinDelay),
		SimulationMaxDelay:    env.Duration("SIMULATION_MAX_DELAY", SimulationMaxDelay),
		RateLimitRPS:          env.Float("RATE_LIMIT_RPS", 0),
		RateLimitBurst:        env.Int("RATE_LIMIT_BURST", 50),
		Gateways:              DefaultGateways(),
	}

	if path := env.String("GATEWAYS_FILE", ""); path != "" {
		gateways, err := ReadGatewaysFile(path)
		if err != nil {
			env.errs = multierr.Append(env.errs, err)
		} else {
			s.Gateways = gateways
		}
	}

	if s.LedgerBackend != LedgerMemory && s.LedgerBackend != LedgerRedis {
		env.errs = multierr.Append(env.errs, fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", LedgerMemory, LedgerRedis, s.LedgerBackend))
	}
	if s.HealthCheckInterval <= 0 {
		env.errs = multierr.Append(env.errs, errors.New("HEALTH_CHECK_INTERVAL must be positive"))
	}
	if s.HistoryWindow <= 0 {
		env.errs = multierr.Append(env.errs, errors.New("HISTORY_WINDOW must be positive"))
	}
	if s.SimulationFailureRate < 0 || s.SimulationFailureRate > 1 {
		env.errs = multierr.Append(env.errs, errors.New("SIMULATION_FAILURE_RATE must be within [0,1]"))
	}
	if s.RateLimitRPS > 0 && s.RateLimitBurst < 1 {
		env.errs = multierr.Append(env.errs, errors.New("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set"))
	}

	return s, env.errs
}

// ReadGatewaysFile decodes a JSON array of gateway configs.
// The configs are validated when installed into the registry, not here.
func ReadGatewaysFile(path string) ([]model.GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gateways file: %w", err)
	}
	var gateways []model.GatewayConfig
	if err := json.Unmarshal(data, &gateways); err != nil {
		return nil, fmt.Errorf("decode gateways file %s: %w", path, err)
	}
	return gateways, nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   error
}

func (e *envReader) String(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *envReader) Int(key string, def int) int {
	v := e.String(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = multierr.Append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *envReader) Float(key string, def float64) float64 {
	v := e.String(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = multierr.Append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	v := e.String(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = multierr.Append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *envReader) Level(key string, def slog.Level) slog.Level {
	v := e.String(key, "")
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		e.errs = multierr.Append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return lvl
}
