//go:build ebiten

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"mad-liquid/internal/app"
	"mad-liquid/internal/config"
	"mad-liquid/internal/core"
	"mad-liquid/internal/logging"
	_ "mad-liquid/internal/sims/sandbox"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := app.NewConfig()
	flags.Bind(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}
	flags.Apply(cfg, flag.CommandLine)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	factory, ok := core.Lookup(cfg.Sim.Name)
	if !ok {
		names := make([]string, 0, len(core.Sims()))
		for name := range core.Sims() {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown sim %q (available: %s)", cfg.Sim.Name, strings.Join(names, ", "))
	}
	sim := factory(cfg.SimOptions())
	if e, ok := sim.(interface{ Err() error }); ok && e.Err() != nil {
		logger.Warn("scenario not loaded, using random world", "scenario", cfg.Sim.Scenario, "err", e.Err())
	}
	sim.Reset(cfg.Sim.Seed)

	game := app.New(sim, cfg.Grid.Scale, flags.HUDWidth, cfg.Sim.Seed, logger)
	size := sim.Size()
	logger.Info("starting", "sim", sim.Name(), "w", size.W, "h", size.H, "tps", cfg.Sim.TPS)

	ebiten.SetWindowTitle("mad-liquid - " + sim.Name())
	ebiten.SetTPS(cfg.Sim.TPS)
	ebiten.SetWindowSize(size.W*cfg.Grid.Scale+flags.HUDWidth, size.H*cfg.Grid.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
