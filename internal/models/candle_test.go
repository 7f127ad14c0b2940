package models

import (
	"testing"
	"time"
)

func sampleCandle() Candle {
	return Candle{
		Symbol:    "NIFTY50",
		Timeframe: "5m",
		Timestamp: time.Now(),
		Open:      100,
		High:      105,
		Low:       98,
		Close:     102,
		Volume:    1000,
	}
}

func TestCandleValidate(t *testing.T) {
	c := sampleCandle()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid candle, got: %v", err)
	}
}

func TestCandleValidate_RejectsEmptySymbol(t *testing.T) {
	c := sampleCandle()
	c.Symbol = ""
	if err := c.Validate(); err != ErrInvalidSymbol {
		t.Errorf("expected ErrInvalidSymbol, got: %v", err)
	}
}

func TestCandleValidate_RejectsNonPositivePrice(t *testing.T) {
	c := sampleCandle()
	c.Close = 0
	if err := c.Validate(); err != ErrNonPositivePrice {
		t.Errorf("expected ErrNonPositivePrice, got: %v", err)
	}
}

func TestCandleValidate_RejectsHighBelowClose(t *testing.T) {
	c := sampleCandle()
	c.High = 99 // below close of 102
	if err := c.Validate(); err != ErrInvalidPriceRange {
		t.Errorf("expected ErrInvalidPriceRange, got: %v", err)
	}
}

func TestCandleValidate_RejectsLowAboveOpen(t *testing.T) {
	c := sampleCandle()
	c.Low = 101 // above open of 100
	if err := c.Validate(); err != ErrInvalidPriceRange {
		t.Errorf("expected ErrInvalidPriceRange, got: %v", err)
	}
}

func TestCandleValidate_RejectsNegativeVolume(t *testing.T) {
	c := sampleCandle()
	c.Volume = -1
	if err := c.Validate(); err != ErrNegativeVolume {
		t.Errorf("expected ErrNegativeVolume, got: %v", err)
	}
}

func TestDedupeByTimestamp(t *testing.T) {
	base := time.Now()
	first := sampleCandle()
	first.Timestamp = base
	first.Close = 100

	dup := sampleCandle()
	dup.Timestamp = base
	dup.Close = 200 // last occurrence should win

	next := sampleCandle()
	next.Timestamp = base.Add(time.Minute)

	out := DedupeByTimestamp([]Candle{first, dup, next})
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped candles, got %d", len(out))
	}
	if out[0].Close != 200 {
		t.Errorf("expected duplicate to collapse to last occurrence, got close=%v", out[0].Close)
	}
}

func TestDedupeByTimestamp_Empty(t *testing.T) {
	if out := DedupeByTimestamp(nil); len(out) != 0 {
		t.Errorf("expected empty slice unchanged, got %v", out)
	}
}

func TestSeriesExtractors(t *testing.T) {
	candles := []Candle{sampleCandle(), sampleCandle()}
	if got := Closes(candles); len(got) != 2 || got[0] != 102 {
		t.Errorf("Closes() = %v", got)
	}
	if got := Highs(candles); len(got) != 2 || got[0] != 105 {
		t.Errorf("Highs() = %v", got)
	}
	if got := Lows(candles); len(got) != 2 || got[0] != 98 {
		t.Errorf("Lows() = %v", got)
	}
	if got := Volumes(candles); len(got) != 2 || got[0] != 1000 {
		t.Errorf("Volumes() = %v", got)
	}
}
