package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var trackIterations int

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Generate signals, then step the tracker loop until they terminate",
	Long:  `Runs one generator tick to produce signals, then advances the synthetic candle feed and runs the tracker loop (C6) repeatedly, printing the final state of every signal once --iterations ticks have elapsed or all signals reach a terminal state.`,
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().IntVar(&trackIterations, "iterations", 10, "number of tracker ticks to run")
}

func runTrack(cmd *cobra.Command, args []string) error {
	engine, err := newCLIEngine()
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	ctx := context.Background()
	engine.generator.Tick(ctx)

	for i := 0; i < trackIterations; i++ {
		active, err := engine.store.FindActive(ctx)
		if err != nil {
			return fmt.Errorf("failed to list active signals: %w", err)
		}
		if len(active) == 0 {
			break
		}
		engine.advance(i + 1)
		engine.tracker.Tick(ctx)
	}

	renderSignals(engine.store.All())
	return nil
}
