package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mad-liquid/internal/trace"
)

type traceSummary struct {
	Entries     int     `json:"entries"`
	FirstTick   int     `json:"first_tick"`
	LastTick    int     `json:"last_tick"`
	FirstTotal  float64 `json:"first_total"`
	LastTotal   float64 `json:"last_total"`
	PeakFlowing int     `json:"peak_flowing"`
	SettleTick  int     `json:"settle_tick"`
}

func summarizeTrace(entries []trace.Entry) traceSummary {
	s := traceSummary{Entries: len(entries), SettleTick: -1}
	if len(entries) == 0 {
		return s
	}
	first, last := entries[0], entries[len(entries)-1]
	s.FirstTick, s.LastTick = first.Tick, last.Tick
	s.FirstTotal, s.LastTotal = first.TotalLiquid, last.TotalLiquid
	for _, e := range entries {
		if e.Flowing > s.PeakFlowing {
			s.PeakFlowing = e.Flowing
		}
		if s.SettleTick < 0 && e.Wet == e.Settled {
			s.SettleTick = e.Tick
		}
	}
	return s
}

func newTraceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trace <file>",
		Short: "Summarise a trace written by run --trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := trace.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read trace: %w", err)
			}
			if len(entries) == 0 {
				return errors.New("trace is empty")
			}
			s := summarizeTrace(entries)
			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(out).Encode(s)
			}
			fmt.Fprintf(out, "entries:      %d (ticks %d..%d)\n", s.Entries, s.FirstTick, s.LastTick)
			fmt.Fprintf(out, "liquid:       %.4f -> %.4f\n", s.FirstTotal, s.LastTotal)
			fmt.Fprintf(out, "peak flowing: %d\n", s.PeakFlowing)
			if s.SettleTick >= 0 {
				fmt.Fprintf(out, "settled at:   %d\n", s.SettleTick)
			} else {
				fmt.Fprintln(out, "settled at:   never")
			}
			return nil
		},
	}
}
