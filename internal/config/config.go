package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Transports a player can fetch chunks through.
const (
	TransportHTTP      = "http"
	TransportWebsocket = "ws"
	TransportRedis     = "redis"
	TransportReplay    = "replay"
)

// Config is the player configuration.
// Resolution order: Default, then the YAML file, then ORRERY_* environment variables.
// Command line flags are applied on top by the CLI.
type Config struct {
	Transport    string `yaml:"transport" env:"ORRERY_TRANSPORT"`
	Source       string `yaml:"source" env:"ORRERY_SOURCE"`
	Simulation   string `yaml:"simulation" env:"ORRERY_SIMULATION"`
	SessionID    string `yaml:"session_id" env:"ORRERY_SESSION_ID"`
	InitialState string `yaml:"initial_state" env:"ORRERY_INITIAL_STATE"`
	Follow       bool   `yaml:"follow" env:"ORRERY_FOLLOW"`

	// Session shape for transports that cannot start simulations (redis, replay).
	FPS           int     `yaml:"fps" env:"ORRERY_FPS"`
	YearsPerFrame float64 `yaml:"years_per_frame" env:"ORRERY_YEARS_PER_FRAME"`
	EntityCount   int     `yaml:"entity_count" env:"ORRERY_ENTITY_COUNT"`

	LogLevel    string `yaml:"log_level" env:"ORRERY_LOG_LEVEL"`
	ListenAddr  string `yaml:"listen_addr" env:"ORRERY_LISTEN_ADDR"`
	Archive     string `yaml:"archive" env:"ORRERY_ARCHIVE"`
	RedisPrefix string `yaml:"redis_prefix" env:"ORRERY_REDIS_PREFIX"`
	Scenarios   string `yaml:"scenarios" env:"ORRERY_SCENARIOS"`

	// Spawn names a producer from the Producers file to launch before playing.
	Spawn     string `yaml:"spawn" env:"ORRERY_SPAWN"`
	Producers string `yaml:"producers" env:"ORRERY_PRODUCERS"`

	Tuning Tuning `yaml:"tuning"`
	Retry  Retry  `yaml:"retry"`
}

// Tuning mirrors domain.Tuning with file and environment bindings.
type Tuning struct {
	LowWatermark        time.Duration `yaml:"low_watermark" env:"ORRERY_LOW_WATERMARK"`
	HighCursorThreshold int           `yaml:"high_cursor_threshold" env:"ORRERY_HIGH_CURSOR_THRESHOLD"`
	SafetyMargin        int           `yaml:"safety_margin" env:"ORRERY_SAFETY_MARGIN"`
	TrailCapacity       int           `yaml:"trail_capacity" env:"ORRERY_TRAIL_CAPACITY"`
	TrailEpsilon        float64       `yaml:"trail_epsilon" env:"ORRERY_TRAIL_EPSILON"`
}

// Retry configures the fetch backoff.
type Retry struct {
	Initial    time.Duration `yaml:"initial" env:"ORRERY_RETRY_INITIAL"`
	Max        time.Duration `yaml:"max" env:"ORRERY_RETRY_MAX"`
	Multiplier float64       `yaml:"multiplier" env:"ORRERY_RETRY_MULTIPLIER"`
}

// Default returns the built-in configuration.
func Default() Config {
	t := domain.DefaultTuning()
	return Config{
		Transport:     TransportHTTP,
		Source:        "http://localhost:5000",
		Simulation:    "solar_system",
		InitialState:  string(domain.StatePlaying),
		FPS:           30,
		YearsPerFrame: 0.01,
		LogLevel:      "info",
		ListenAddr:    ":8080",
		RedisPrefix:   "orrery:",
		Scenarios:     "scenarios",
		Producers:     "producers.yaml",
		Tuning: Tuning{
			LowWatermark:        t.LowWatermark,
			HighCursorThreshold: t.HighCursorThreshold,
			SafetyMargin:        t.SafetyMargin,
			TrailCapacity:       t.TrailCapacity,
			TrailEpsilon:        t.TrailEpsilon,
		},
		Retry: Retry{
			Initial:    250 * time.Millisecond,
			Max:        10 * time.Second,
			Multiplier: 2,
		},
	}
}

// Load resolves the configuration from defaults, the optional file at path and the environment.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the player cannot run with.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportWebsocket, TransportRedis, TransportReplay:
	default:
		return fmt.Errorf("%w: unknown transport %q", domain.ErrInvalidConfig, c.Transport)
	}
	if _, err := c.PlaybackState(); err != nil {
		return err
	}
	if c.Retry.Initial < 0 || c.Retry.Max < 0 {
		return fmt.Errorf("%w: retry intervals must not be negative", domain.ErrInvalidConfig)
	}
	return c.DomainTuning().Validate()
}

// DomainTuning converts the tuning section.
func (c Config) DomainTuning() domain.Tuning {
	return domain.Tuning{
		LowWatermark:        c.Tuning.LowWatermark,
		HighCursorThreshold: c.Tuning.HighCursorThreshold,
		SafetyMargin:        c.Tuning.SafetyMargin,
		TrailCapacity:       c.Tuning.TrailCapacity,
		TrailEpsilon:        c.Tuning.TrailEpsilon,
	}
}

// FixedSession describes the session named by SessionID for transports without a session handshake.
func (c Config) FixedSession() domain.SessionConfig {
	return domain.SessionConfig{
		SessionID:     c.SessionID,
		Name:          c.Simulation,
		FPS:           c.FPS,
		YearsPerFrame: c.YearsPerFrame,
		EntityCount:   c.EntityCount,
	}
}

// NeedsHandshake reports whether the transport starts sessions itself.
func (c Config) NeedsHandshake() bool {
	return c.Transport == TransportHTTP || c.Transport == TransportWebsocket
}

// PlaybackState parses the initial state.
func (c Config) PlaybackState() (domain.PlaybackState, error) {
	switch s := domain.PlaybackState(c.InitialState); s {
	case domain.StatePlaying, domain.StatePaused:
		return s, nil
	default:
		return "", fmt.Errorf("%w: initial state must be %q or %q, got %q",
			domain.ErrInvalidConfig, domain.StatePlaying, domain.StatePaused, c.InitialState)
	}
}
