package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one generator tick and print any signals produced",
	Long:  `Runs a single pass of the generator loop (C5) across every configured symbol/timeframe slot against a synthetic candle history, then lists whatever ACTIVE signals resulted.`,
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	engine, err := newCLIEngine()
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	engine.generator.Tick(context.Background())

	active, err := engine.store.FindActive(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list active signals: %w", err)
	}

	if len(active) == 0 {
		fmt.Println("No actionable signals produced this tick.")
		return nil
	}

	renderSignals(active)
	return nil
}

// renderSignals prints a go-pretty table of signals, the CLI's one
// rendering path shared by generate/track/replay.
func renderSignals(signals []models.Signal) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Symbol", "Timeframe", "Action", "Confidence", "Entry", "Stop", "Target1", "R:R", "Regime", "Status"})
	for _, s := range signals {
		t.AppendRow(table.Row{
			s.Symbol, s.Timeframe, s.Action,
			fmt.Sprintf("%.1f", s.Confidence),
			fmt.Sprintf("%.2f", s.Levels.Entry),
			fmt.Sprintf("%.2f", s.Levels.StopLoss),
			fmt.Sprintf("%.2f", s.Levels.Target1),
			fmt.Sprintf("%.2f", s.Levels.RiskRewardRatio),
			s.MarketRegime.Regime,
			s.Status,
		})
	}
	t.Render()
}
