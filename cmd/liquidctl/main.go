// Command liquidctl runs the liquid sandbox without a window: fixed-length
// runs, parameter sweeps, trace inspection, and a websocket frame server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mad-liquid/internal/config"
	"mad-liquid/internal/logging"
	"mad-liquid/internal/sims/sandbox"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "liquidctl",
		Short: "Headless tools for the liquid sandbox",
		Long: `liquidctl drives the cellular liquid simulation without a window.

It can run a scenario for a fixed number of ticks, sweep flow parameters
across a worker pool, inspect recorded traces, and stream frames to
websocket clients.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newServeCmd(),
		newTraceCmd(),
	)
	return rootCmd
}

// loadConfig resolves the config file and the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return cfg, logger, nil
}

// newWorld builds the sandbox described by cfg, overriding the scenario when
// one is given.
func newWorld(cfg *config.Config, scenarioPath string) (*sandbox.World, error) {
	opts := cfg.SimOptions()
	if scenarioPath != "" {
		opts["scenario"] = scenarioPath
	}
	world := sandbox.NewWithConfig(sandbox.FromMap(opts))
	if err := world.Err(); err != nil {
		return nil, err
	}
	return world, nil
}

func scenarioLabel(world *sandbox.World) string {
	sc := world.Scenario()
	switch {
	case sc == nil:
		return "random"
	case strings.TrimSpace(sc.Name) == "":
		return "unnamed"
	default:
		return sc.Name
	}
}
