package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mad-liquid/internal/scenario"
	"mad-liquid/internal/sims/sandbox"
	"mad-liquid/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Rank flow parameter combinations by how fast a scenario settles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			scenarioPath, _ := cmd.Flags().GetString("scenario")
			dbPath, _ := cmd.Flags().GetString("db")
			workers, _ := cmd.Flags().GetInt("workers")
			maxTicks, _ := cmd.Flags().GetInt("max-ticks")
			top, _ := cmd.Flags().GetInt("top")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if scenarioPath == "" {
				scenarioPath = cfg.Sim.Scenario
			}
			if dbPath == "" {
				dbPath = cfg.Sweep.DB
			}
			if workers <= 0 {
				workers = cfg.Sweep.Workers
			}
			if maxTicks <= 0 {
				maxTicks = cfg.Sweep.MaxTicks
			}

			runner := &sweep.Runner{
				Base:     sandbox.FromMap(cfg.SimOptions()),
				MaxTicks: maxTicks,
				Workers:  workers,
				Logger:   log,
			}
			name := "random"
			if scenarioPath != "" {
				sc, err := scenario.Load(scenarioPath)
				if err != nil {
					return err
				}
				runner.Scenario = sc
				name = sc.Name
				if name == "" {
					name = scenarioPath
				}
			}
			points := sweep.Points(runner.Base.Params.Engine, cfg.Sweep.MinFlow, cfg.Sweep.MaxCompression, cfg.Sweep.FlowSpeed)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			results, err := runner.Run(ctx, points)
			if err != nil {
				return err
			}

			if dbPath != "" {
				store, err := sweep.OpenStore(dbPath)
				if err != nil {
					return fmt.Errorf("open sweep db: %w", err)
				}
				defer store.Close()
				runID, err := store.SaveRun(context.WithoutCancel(ctx), name, maxTicks, results)
				if err != nil {
					return fmt.Errorf("save sweep: %w", err)
				}
				log.Info("sweep stored", "db", dbPath, "run", runID)
			}

			if top > 0 && top < len(results) {
				results = results[:top]
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(results)
			}
			fmt.Fprintf(out, "Top %d of %d combinations for %s (max %d ticks):\n", len(results), len(points), name, maxTicks)
			for i, r := range results {
				settle := "never"
				if r.Converged() {
					settle = fmt.Sprintf("%d", r.SettleTick)
				}
				fmt.Fprintf(out, "%2d) settle=%s drift=%+.5f wet=%d %s\n", i+1, settle, r.Drift, r.Wet, r.Point)
			}
			return nil
		},
	}
	cmd.Flags().String("scenario", "", "Scenario YAML file (defaults to the config scenario, then a random world)")
	cmd.Flags().String("db", "", "SQLite file to record results in")
	cmd.Flags().Int("workers", 0, "Worker goroutines (defaults to the config value)")
	cmd.Flags().Int("max-ticks", 0, "Tick limit per combination (defaults to the config value)")
	cmd.Flags().Int("top", 5, "Number of results to print")
	return cmd
}
