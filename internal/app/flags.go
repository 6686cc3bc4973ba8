package app

import (
	"flag"

	"mad-liquid/internal/config"
)

// Config represents the command-line parameters for the application.
type Config struct {
	ConfigFile string
	Sim        string
	Scenario   string
	Scale      int
	TPS        int
	Seed       int64
	HUDWidth   int
	LogLevel   string
}

// NewConfig returns a Config populated from the file-level defaults.
func NewConfig() *Config {
	d := config.Default()
	return &Config{
		Sim:      d.Sim.Name,
		Scale:    d.Grid.Scale,
		TPS:      d.Sim.TPS,
		Seed:     d.Sim.Seed,
		HUDWidth: 260,
		LogLevel: d.Logging.Level,
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "YAML config file")
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.StringVar(&c.Scenario, "scenario", c.Scenario, "scenario layout file")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "width of the parameter panel in pixels, 0 hides it")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (trace, debug, info, warn, error)")
}

// Apply copies the flags explicitly set on fs over the file configuration, so
// a YAML file supplies defaults and the command line has the last word.
func (c *Config) Apply(cfg *config.Config, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sim":
			cfg.Sim.Name = c.Sim
		case "scenario":
			cfg.Sim.Scenario = c.Scenario
		case "scale":
			cfg.Grid.Scale = c.Scale
		case "tps":
			cfg.Sim.TPS = c.TPS
		case "seed":
			cfg.Sim.Seed = c.Seed
		case "log-level":
			cfg.Logging.Level = c.LogLevel
		}
	})
	c.Sim = cfg.Sim.Name
	c.Scenario = cfg.Sim.Scenario
	c.Scale = cfg.Grid.Scale
	c.TPS = cfg.Sim.TPS
	c.Seed = cfg.Sim.Seed
	c.LogLevel = cfg.Logging.Level
}
