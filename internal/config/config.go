// Package config loads the YAML configuration shared by the sandbox window and
// the liquidctl tool.
//
// Values are resolved in order: built-in defaults, the YAML file (if any),
// then MADLIQUID_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level configuration.
type Config struct {
	Sim     SimConfig     `yaml:"sim"`
	Grid    GridConfig    `yaml:"grid"`
	Engine  EngineConfig  `yaml:"engine"`
	Render  RenderConfig  `yaml:"render"`
	Edit    EditConfig    `yaml:"edit"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Sweep   SweepConfig   `yaml:"sweep"`
}

// SimConfig selects the simulation and its run pace.
type SimConfig struct {
	Name     string `yaml:"name"`
	Seed     int64  `yaml:"seed"`
	Scenario string `yaml:"scenario"`
	TPS      int    `yaml:"tps"`
	Ticks    int    `yaml:"ticks"`
}

// GridConfig sizes the world and the window.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Scale  int `yaml:"scale"`
}

// EngineConfig mirrors the flow model tunables.
type EngineConfig struct {
	MaxValue       float64 `yaml:"max_value"`
	MinValue       float64 `yaml:"min_value"`
	MaxCompression float64 `yaml:"max_compression"`
	MinFlow        float64 `yaml:"min_flow"`
	MaxFlow        float64 `yaml:"max_flow"`
	FlowSpeed      float64 `yaml:"flow_speed"`
	SettleTicks    int     `yaml:"settle_ticks"`
}

// RenderConfig holds the display toggles.
type RenderConfig struct {
	ShowFlow    bool `yaml:"show_flow"`
	Floating    bool `yaml:"floating"`
	DownFlowing bool `yaml:"down_flowing"`
}

// EditConfig controls pointer edits and random world generation.
type EditConfig struct {
	PourAmount     float64 `yaml:"pour_amount"`
	PlatformCount  int     `yaml:"platform_count"`
	PlatformLenMin int     `yaml:"platform_len_min"`
	PlatformLenMax int     `yaml:"platform_len_max"`
	PoolCount      int     `yaml:"pool_count"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig controls the websocket frame server.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	FrameEvery      int    `yaml:"frame_every"`
	MaxMessageBytes int64  `yaml:"max_message_bytes"`
}

// SweepConfig describes a parameter sweep. Each axis lists the values to try;
// the sweep runs their cartesian product.
type SweepConfig struct {
	Workers        int       `yaml:"workers"`
	MaxTicks       int       `yaml:"max_ticks"`
	DB             string    `yaml:"db"`
	MinFlow        []float64 `yaml:"min_flow"`
	MaxCompression []float64 `yaml:"max_compression"`
	FlowSpeed      []float64 `yaml:"flow_speed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sim: SimConfig{
			Name:  "liquid",
			Seed:  1337,
			TPS:   60,
			Ticks: 600,
		},
		Grid: GridConfig{
			Width:  80,
			Height: 40,
			Scale:  12,
		},
		Engine: EngineConfig{
			MaxValue:       1.0,
			MinValue:       0.001,
			MaxCompression: 0.25,
			MinFlow:        0.05,
			MaxFlow:        1.0,
			FlowSpeed:      1.0,
			SettleTicks:    10,
		},
		Render: RenderConfig{
			ShowFlow: true,
		},
		Edit: EditConfig{
			PourAmount:     5,
			PlatformCount:  6,
			PlatformLenMin: 4,
			PlatformLenMax: 14,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8085",
			FrameEvery:      1,
			MaxMessageBytes: 4096,
		},
		Sweep: SweepConfig{
			Workers:        4,
			MaxTicks:       2000,
			MinFlow:        []float64{0.005, 0.01, 0.05},
			MaxCompression: []float64{0.02, 0.25},
			FlowSpeed:      []float64{0.5, 1},
		},
	}
}

// Load resolves the configuration from path (optional), the environment, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges the simulation cannot recover from.
func (c *Config) Validate() error {
	if c.Grid.Width < 3 || c.Grid.Height < 3 {
		return fmt.Errorf("%w: grid must be at least 3x3, got %dx%d", ErrInvalid, c.Grid.Width, c.Grid.Height)
	}
	if c.Grid.Scale < 1 {
		return fmt.Errorf("%w: scale must be positive, got %d", ErrInvalid, c.Grid.Scale)
	}
	if c.Sim.TPS < 1 {
		return fmt.Errorf("%w: tps must be positive, got %d", ErrInvalid, c.Sim.TPS)
	}
	e := c.Engine
	if e.MaxValue <= 0 {
		return fmt.Errorf("%w: max_value must be positive, got %g", ErrInvalid, e.MaxValue)
	}
	if e.MinValue < 0 || e.MinValue >= e.MaxValue {
		return fmt.Errorf("%w: min_value must be in [0, max_value), got %g", ErrInvalid, e.MinValue)
	}
	if e.MaxCompression < 0 {
		return fmt.Errorf("%w: max_compression must be non-negative, got %g", ErrInvalid, e.MaxCompression)
	}
	if e.MinFlow < 0 {
		return fmt.Errorf("%w: min_flow must be non-negative, got %g", ErrInvalid, e.MinFlow)
	}
	if e.MaxFlow <= 0 {
		return fmt.Errorf("%w: max_flow must be positive, got %g", ErrInvalid, e.MaxFlow)
	}
	if e.FlowSpeed <= 0 || e.FlowSpeed > 1 {
		return fmt.Errorf("%w: flow_speed must be in (0, 1], got %g", ErrInvalid, e.FlowSpeed)
	}
	if e.SettleTicks < 1 {
		return fmt.Errorf("%w: settle_ticks must be positive, got %d", ErrInvalid, e.SettleTicks)
	}
	if c.Edit.PourAmount <= 0 {
		return fmt.Errorf("%w: pour_amount must be positive, got %g", ErrInvalid, c.Edit.PourAmount)
	}
	if c.Edit.PlatformLenMin < 1 || c.Edit.PlatformLenMax < c.Edit.PlatformLenMin {
		return fmt.Errorf("%w: platform length range %d..%d", ErrInvalid, c.Edit.PlatformLenMin, c.Edit.PlatformLenMax)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Logging.Format)
	}
	if c.Server.FrameEvery < 1 {
		return fmt.Errorf("%w: frame_every must be positive, got %d", ErrInvalid, c.Server.FrameEvery)
	}
	if c.Sweep.Workers < 1 {
		return fmt.Errorf("%w: sweep workers must be positive, got %d", ErrInvalid, c.Sweep.Workers)
	}
	if c.Sweep.MaxTicks < 1 {
		return fmt.Errorf("%w: sweep max_ticks must be positive, got %d", ErrInvalid, c.Sweep.MaxTicks)
	}
	return nil
}

// SimOptions renders the flag-style key/value map consumed by the sim
// registry.
func (c *Config) SimOptions() map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	opts := map[string]string{
		"w":                   strconv.Itoa(c.Grid.Width),
		"h":                   strconv.Itoa(c.Grid.Height),
		"seed":                strconv.FormatInt(c.Sim.Seed, 10),
		"max_value":           f(c.Engine.MaxValue),
		"min_value":           f(c.Engine.MinValue),
		"max_compression":     f(c.Engine.MaxCompression),
		"min_flow":            f(c.Engine.MinFlow),
		"max_flow":            f(c.Engine.MaxFlow),
		"flow_speed":          f(c.Engine.FlowSpeed),
		"settle_ticks":        strconv.Itoa(c.Engine.SettleTicks),
		"platform_count":      strconv.Itoa(c.Edit.PlatformCount),
		"platform_len_min":    strconv.Itoa(c.Edit.PlatformLenMin),
		"platform_len_max":    strconv.Itoa(c.Edit.PlatformLenMax),
		"pool_count":          strconv.Itoa(c.Edit.PoolCount),
		"pour_amount":         f(c.Edit.PourAmount),
		"show_flow":           strconv.FormatBool(c.Render.ShowFlow),
		"render_floating":     strconv.FormatBool(c.Render.Floating),
		"render_down_flowing": strconv.FormatBool(c.Render.DownFlowing),
	}
	if c.Sim.Scenario != "" {
		opts["scenario"] = c.Sim.Scenario
	}
	return opts
}

func applyEnvOverrides(c *Config) error {
	if v := os.Getenv("MADLIQUID_SIM"); v != "" {
		c.Sim.Name = v
	}
	if v := os.Getenv("MADLIQUID_SCENARIO"); v != "" {
		c.Sim.Scenario = v
	}
	if v := os.Getenv("MADLIQUID_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MADLIQUID_SEED: %w", err)
		}
		c.Sim.Seed = n
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"MADLIQUID_TPS", &c.Sim.TPS},
		{"MADLIQUID_WIDTH", &c.Grid.Width},
		{"MADLIQUID_HEIGHT", &c.Grid.Height},
		{"MADLIQUID_SCALE", &c.Grid.Scale},
		{"MADLIQUID_SWEEP_WORKERS", &c.Sweep.Workers},
	}
	for _, o := range ints {
		v := os.Getenv(o.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", o.key, err)
		}
		*o.dst = n
	}
	if v := os.Getenv("MADLIQUID_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MADLIQUID_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("MADLIQUID_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MADLIQUID_SWEEP_DB"); v != "" {
		c.Sweep.DB = v
	}
	return nil
}
