package main

import (
	"fmt"
	"regexp"
	"strings"
)

// validateSymbol validates an instrument symbol format (uppercase
// alphanumerics, e.g. NIFTY50, BANKNIFTY, DOWJONES).
func validateSymbol(symbol string) error {
	symbolRegex := regexp.MustCompile(`^[A-Z0-9]{2,15}$`)

	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !symbolRegex.MatchString(symbol) {
		return fmt.Errorf("symbol must be 2-15 uppercase alphanumeric characters")
	}
	return nil
}

// validateTimeframe validates a timeframe parameter against the engine's
// supported bar sizes.
func validateTimeframe(timeframe string) error {
	validTimeframes := map[string]bool{
		"1m": true, "5m": true, "15m": true, "30m": true, "1h": true, "1d": true,
	}
	if !validTimeframes[timeframe] {
		return fmt.Errorf("invalid timeframe: %s (valid: 1m, 5m, 15m, 30m, 1h, 1d)", timeframe)
	}
	return nil
}

// validateOutputFormat validates the --format flag.
func validateOutputFormat(format string) error {
	validFormats := map[string]bool{"table": true, "json": true}
	format = strings.ToLower(format)
	if !validFormats[format] {
		return fmt.Errorf("invalid format: %s (valid: table, json)", format)
	}
	return nil
}
