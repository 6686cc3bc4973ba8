package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mad-liquid/internal/transport/ws"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream frames to websocket clients and accept remote edits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			scenarioPath, _ := cmd.Flags().GetString("scenario")
			addr, _ := cmd.Flags().GetString("addr")
			paused, _ := cmd.Flags().GetBool("paused")
			if addr == "" {
				addr = cfg.Server.Addr
			}

			world, err := newWorld(cfg, scenarioPath)
			if err != nil {
				return err
			}
			world.Reset(0)

			srv := ws.NewServer(world, ws.Options{
				TPS:             cfg.Sim.TPS,
				FrameEvery:      cfg.Server.FrameEvery,
				MaxMessageBytes: cfg.Server.MaxMessageBytes,
				Paused:          paused,
				Logger:          log,
			})
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().String("scenario", "", "Scenario YAML file (defaults to a random world)")
	cmd.Flags().String("addr", "", "Listen address (defaults to the config value)")
	cmd.Flags().Bool("paused", false, "Start paused until a client sends resume")
	return cmd
}
