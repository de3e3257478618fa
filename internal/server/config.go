package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"UnitCoinMiner/internal/game"
)

type thermalConfig struct {
	Ambient         *float64 `yaml:"ambient"`
	OverheatAt      *float64 `yaml:"overheatAt"`
	RecoverAt       *float64 `yaml:"recoverAt"`
	PassiveCooldown *float64 `yaml:"passiveCooldown"`
	Jitter          *float64 `yaml:"jitter"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type SimulationConfig struct {
	TickInterval   time.Duration `yaml:"tickInterval"`
	MarketInterval time.Duration `yaml:"marketInterval"`
	PushInterval   time.Duration `yaml:"pushInterval"`
	// Seed fixes the random source of every room when non-zero.
	Seed uint64 `yaml:"seed"`
}

type SaveConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Path       string        `yaml:"path"`
	InMemory   bool          `yaml:"inMemory"`
	Interval   time.Duration `yaml:"interval"`
	GCInterval time.Duration `yaml:"gcInterval"`
}

type WSConfig struct {
	CommandsPerSecond float64 `yaml:"commandsPerSecond"`
	Burst             int     `yaml:"burst"`
}

type fileConfig struct {
	Addr       string           `yaml:"addr"`
	Log        LogConfig        `yaml:"log"`
	Simulation SimulationConfig `yaml:"simulation"`
	Thermal    *thermalConfig   `yaml:"thermal"`
	Save       SaveConfig       `yaml:"save"`
	WS         WSConfig         `yaml:"ws"`
}

// ThermalOverrides represents optional command-line overrides for tuning thermal parameters.
type ThermalOverrides struct {
	Ambient         *float64
	OverheatAt      *float64
	RecoverAt       *float64
	PassiveCooldown *float64
	Jitter          *float64
}

func (o ThermalOverrides) apply(base game.ThermalParams) game.ThermalParams {
	if o.Ambient != nil {
		base.Ambient = *o.Ambient
	}
	if o.OverheatAt != nil {
		base.OverheatAt = *o.OverheatAt
	}
	if o.RecoverAt != nil {
		base.RecoverAt = *o.RecoverAt
	}
	if o.PassiveCooldown != nil {
		base.PassiveCooldown = *o.PassiveCooldown
	}
	if o.Jitter != nil {
		base.Jitter = *o.Jitter
	}
	return game.SanitizeThermalParams(base)
}

func (c *thermalConfig) overrides() ThermalOverrides {
	if c == nil {
		return ThermalOverrides{}
	}
	return ThermalOverrides(*c)
}

// AppConfig is the fully resolved server configuration.
type AppConfig struct {
	Addr       string
	Log        LogConfig
	Simulation SimulationConfig
	Thermal    game.ThermalParams
	Save       SaveConfig
	WS         WSConfig
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Addr: ":8080",
		Log:  LogConfig{Level: "info", Format: "text"},
		Simulation: SimulationConfig{
			TickInterval:   time.Duration(float64(time.Second) / game.TickHz),
			MarketInterval: time.Duration(game.MarketStepSeconds * float64(time.Second)),
			PushInterval:   time.Duration(float64(time.Second) / game.UpdateRateHz),
		},
		Thermal: game.DefaultThermalParams(),
		Save: SaveConfig{
			Enabled:    true,
			Path:       "data/saves",
			Interval:   10 * time.Second,
			GCInterval: 5 * time.Minute,
		},
		WS: WSConfig{CommandsPerSecond: 20, Burst: 40},
	}
}

// LoadConfig resolves configuration with priority: env > file > defaults.
// A missing file is not an error.
func LoadConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return DefaultAppConfig(), err
		}
	}
	loadConfigFromEnv(&cfg)
	return cfg.sanitized(), nil
}

func loadConfigFile(path string, cfg *AppConfig) error {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", cleanPath, err)
	}

	fc := fileConfig{
		Addr:       cfg.Addr,
		Log:        cfg.Log,
		Simulation: cfg.Simulation,
		Save:       cfg.Save,
		WS:         cfg.WS,
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %q: %w", cleanPath, err)
	}
	cfg.Addr = fc.Addr
	cfg.Log = fc.Log
	cfg.Simulation = fc.Simulation
	cfg.Save = fc.Save
	cfg.WS = fc.WS
	cfg.Thermal = fc.Thermal.overrides().apply(cfg.Thermal)
	return nil
}

func loadConfigFromEnv(cfg *AppConfig) {
	if v := os.Getenv("UNITCOIN_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("UNITCOIN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("UNITCOIN_SAVE_PATH"); v != "" {
		cfg.Save.Path = v
	}
}

// ApplyOverrides layers command-line thermal overrides on top of cfg.
func (cfg AppConfig) ApplyOverrides(o ThermalOverrides) AppConfig {
	cfg.Thermal = o.apply(cfg.Thermal)
	return cfg
}

// sanitized replaces unusable values with defaults.
func (cfg AppConfig) sanitized() AppConfig {
	def := DefaultAppConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.Simulation.TickInterval <= 0 {
		cfg.Simulation.TickInterval = def.Simulation.TickInterval
	}
	if cfg.Simulation.MarketInterval <= 0 {
		cfg.Simulation.MarketInterval = def.Simulation.MarketInterval
	}
	if cfg.Simulation.PushInterval <= 0 {
		cfg.Simulation.PushInterval = def.Simulation.PushInterval
	}
	if cfg.Save.Interval <= 0 {
		cfg.Save.Interval = def.Save.Interval
	}
	if cfg.Save.Path == "" && !cfg.Save.InMemory {
		cfg.Save.Path = def.Save.Path
	}
	if !(cfg.WS.CommandsPerSecond > 0) {
		cfg.WS.CommandsPerSecond = def.WS.CommandsPerSecond
	}
	if cfg.WS.Burst <= 0 {
		cfg.WS.Burst = def.WS.Burst
	}
	cfg.Thermal = game.SanitizeThermalParams(cfg.Thermal)
	return cfg
}

// NewLogger builds the process logger described by cfg.
func NewLogger(cfg LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
