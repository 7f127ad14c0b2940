package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ridopark/jonbu-ohlcv/internal/clock"
	"github.com/ridopark/jonbu-ohlcv/internal/config"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List the configured symbols, timeframes, and venue sessions",
	Long:  `Prints the engine's configured (symbol, timeframe) slots and each symbol's resolved venue session, read directly from the loaded configuration rather than a stored tracking list.`,
	RunE:  runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Symbol", "Venue", "Session", "Timeframes"})
	for _, symbol := range cfg.Engine.Symbols {
		if err := validateSymbol(symbol); err != nil {
			fmt.Fprintf(os.Stderr, "warning: configured symbol %q: %v\n", symbol, err)
		}
		for _, timeframe := range cfg.Engine.Timeframes {
			if err := validateTimeframe(timeframe); err != nil {
				fmt.Fprintf(os.Stderr, "warning: configured timeframe %q: %v\n", timeframe, err)
			}
		}
		venue := cfg.Engine.VenueSessions[symbol]
		if venue == "" {
			venue = clock.VenueForSymbol(symbol)
		}
		t.AppendRow(table.Row{symbol, venue, sessionHours(venue), fmt.Sprintf("%v", cfg.Engine.Timeframes)})
	}
	t.Render()
	return nil
}

func sessionHours(venue string) string {
	switch venue {
	case "NSE":
		return "09:15-15:30 Asia/Kolkata"
	case "DOWJONES":
		return "09:30-16:00 America/New_York"
	default:
		return "unknown"
	}
}
