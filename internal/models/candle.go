package models

import "time"

// REQ-071: Candle MUST include symbol, timestamp, open, high, low, close, volume, timeframe
// REQ-073: Prices MUST be stored as float64
// REQ-074: Volume MUST be stored as int64
type Candle struct {
	Symbol    string    `json:"symbol" validate:"required,uppercase"`
	Timeframe string    `json:"timeframe" validate:"required,oneof=1m 5m 15m 30m 1h 1d"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Open      float64   `json:"open" validate:"required,gt=0"`
	High      float64   `json:"high" validate:"required,gt=0"`
	Low       float64   `json:"low" validate:"required,gt=0"`
	Close     float64   `json:"close" validate:"required,gt=0"`
	Volume    int64     `json:"volume" validate:"gte=0"`
}

// Validate performs the well-formedness checks required of every candle
// delivered by a CandleSource: REQ per §6, high/low must bound open/close.
func (c *Candle) Validate() error {
	if c.Symbol == "" {
		return ErrInvalidSymbol
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return ErrNonPositivePrice
	}
	if c.High < c.Open || c.High < c.Close || c.High < c.Low {
		return ErrInvalidPriceRange
	}
	if c.Low > c.Open || c.Low > c.Close {
		return ErrInvalidPriceRange
	}
	if c.Volume < 0 {
		return ErrNegativeVolume
	}
	return nil
}

// DedupeByTimestamp enforces the §6 rule that duplicate timestamps are
// collapsed to their last occurrence, preserving ascending order.
func DedupeByTimestamp(candles []Candle) []Candle {
	if len(candles) == 0 {
		return candles
	}
	out := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(c.Timestamp) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

// Closes extracts the closing price series from a candle window, ascending.
func Closes(candles []Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

// Highs extracts the high price series.
func Highs(candles []Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.High
	}
	return prices
}

// Lows extracts the low price series.
func Lows(candles []Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Low
	}
	return prices
}

// Volumes extracts the volume series.
func Volumes(candles []Candle) []int64 {
	vols := make([]int64, len(candles))
	for i, c := range candles {
		vols[i] = c.Volume
	}
	return vols
}
