package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"mad-liquid/internal/liquid"
	"mad-liquid/internal/logging"
	"mad-liquid/internal/trace"
)

type runSummary struct {
	Scenario   string       `json:"scenario"`
	Ticks      int          `json:"ticks"`
	SettleTick int          `json:"settle_tick"`
	Initial    float64      `json:"initial_liquid"`
	Poured     float64      `json:"poured"`
	Drift      float64      `json:"drift"`
	Final      liquid.Stats `json:"final"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation for a fixed number of ticks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			scenarioPath, _ := cmd.Flags().GetString("scenario")
			ticks, _ := cmd.Flags().GetInt("ticks")
			seed, _ := cmd.Flags().GetInt64("seed")
			tracePath, _ := cmd.Flags().GetString("trace")
			untilSettled, _ := cmd.Flags().GetBool("until-settled")
			jsonOut, _ := cmd.Flags().GetBool("json")

			world, err := newWorld(cfg, scenarioPath)
			if err != nil {
				return fmt.Errorf("build world: %w", err)
			}
			world.Reset(seed)
			if ticks <= 0 {
				ticks = cfg.Sim.Ticks
				if sc := world.Scenario(); sc != nil && sc.Ticks > 0 {
					ticks = sc.Ticks
				}
			}

			var tw *trace.Writer
			if tracePath != "" {
				tw, err = trace.Create(tracePath)
				if err != nil {
					return err
				}
				defer tw.Close()
			}

			summary := runSummary{Scenario: scenarioLabel(world), SettleTick: -1}
			summary.Initial = world.Stats().TotalLiquid
			log.Info("run starting", "scenario", summary.Scenario, "ticks", ticks, "size", fmt.Sprintf("%dx%d", world.Size().W, world.Size().H))

			for world.Tick() < ticks {
				world.Step()
				stats := world.Stats()
				if tw != nil {
					if err := tw.Write(trace.Entry{Tick: world.Tick(), Stats: stats}); err != nil {
						return fmt.Errorf("write trace: %w", err)
					}
				}
				log.Log(cmd.Context(), logging.LevelTrace, "tick", "tick", world.Tick(), "wet", stats.Wet, "settled", stats.Settled, "total", stats.TotalLiquid)
				if summary.SettleTick < 0 && world.Settled() {
					summary.SettleTick = world.Tick()
					log.Debug("settled", "tick", world.Tick())
					if untilSettled {
						break
					}
				}
			}
			if tw != nil {
				if err := tw.Close(); err != nil {
					return fmt.Errorf("close trace: %w", err)
				}
			}

			summary.Ticks = world.Tick()
			summary.Final = world.Stats()
			summary.Poured = world.Poured()
			summary.Drift = summary.Final.TotalLiquid - summary.Initial - summary.Poured
			log.Info("run finished", "ticks", summary.Ticks, "settle_tick", summary.SettleTick)

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(summary)
			}
			fmt.Fprintf(out, "scenario:    %s\n", summary.Scenario)
			fmt.Fprintf(out, "ticks:       %d\n", summary.Ticks)
			if summary.SettleTick >= 0 {
				fmt.Fprintf(out, "settled at:  %d\n", summary.SettleTick)
			} else {
				fmt.Fprintln(out, "settled at:  never")
			}
			fmt.Fprintf(out, "liquid:      %.4f (start %.4f, poured %.4f, drift %+.5f)\n", summary.Final.TotalLiquid, summary.Initial, summary.Poured, summary.Drift)
			fmt.Fprintf(out, "cells:       %d wet, %d settled, %d flowing\n", summary.Final.Wet, summary.Final.Settled, summary.Final.Flowing)
			return nil
		},
	}
	cmd.Flags().String("scenario", "", "Scenario YAML file (defaults to a random world)")
	cmd.Flags().Int("ticks", 0, "Ticks to simulate (defaults to the scenario or config value)")
	cmd.Flags().Int64("seed", 0, "Reset seed for random worlds (0 uses the config seed)")
	cmd.Flags().String("trace", "", "Write per-tick stats to this .jsonl.zst file")
	cmd.Flags().Bool("until-settled", false, "Stop as soon as every wet cell has settled")
	return cmd
}
