package indicators

import (
	"testing"
	"time"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	got, ok := SMA(values, 3)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if want := (3.0 + 4.0 + 5.0) / 3.0; got != want {
		t.Errorf("SMA = %v, want %v", got, want)
	}
}

func TestSMA_InsufficientData(t *testing.T) {
	if _, ok := SMA([]float64{1, 2}, 5); ok {
		t.Error("expected ok=false when fewer values than period")
	}
}

func TestEMA_SeededByFirstValue(t *testing.T) {
	values := []float64{10, 10, 10, 10}
	got, ok := EMA(values, 2)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if got != 10 {
		t.Errorf("constant series EMA should converge to the constant, got %v", got)
	}
}

func TestStdDev_ConstantSeriesIsZero(t *testing.T) {
	got, ok := StdDev([]float64{5, 5, 5, 5}, 4)
	if !ok || got != 0 {
		t.Errorf("expected stddev 0 for a constant series, got %v (ok=%v)", got, ok)
	}
}

func TestTrueRange(t *testing.T) {
	prev := models.Candle{High: 100, Low: 95, Close: 98}
	cur := models.Candle{High: 105, Low: 99, Close: 103}
	// tr1 = 105-99=6, tr2 = |105-98|=7, tr3 = |99-98|=1 -> max=7
	if got := TrueRange(cur, prev); got != 7 {
		t.Errorf("TrueRange = %v, want 7", got)
	}
}

func buildRisingCandles(n int, step float64) []models.Candle {
	out := make([]models.Candle, n)
	now := time.Now()
	price := 100.0
	for i := 0; i < n; i++ {
		high := price + 1
		low := price - 1
		out[i] = models.Candle{
			Symbol: "TEST", Timeframe: "1m", Timestamp: now.Add(time.Duration(i) * time.Minute),
			Open: price, High: high, Low: low, Close: price, Volume: 100,
		}
		price += step
	}
	return out
}

func TestWilderATR_ConstantRangeConverges(t *testing.T) {
	candles := buildRisingCandles(30, 0) // flat series, range is always 2 (high-low)
	atr, ok := WilderATR(candles, 14)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if atr < 1.9 || atr > 2.1 {
		t.Errorf("expected ATR to converge near the constant true range of 2, got %v", atr)
	}
}

func TestWilderATR_InsufficientCandles(t *testing.T) {
	if _, ok := WilderATR(buildRisingCandles(5, 1), 14); ok {
		t.Error("expected ok=false with fewer than period+1 candles")
	}
}

func TestHighestLow(t *testing.T) {
	candles := buildRisingCandles(10, 1)
	highest, lowest, ok := HighestLow(candles, 5)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if highest <= lowest {
		t.Errorf("expected highest > lowest, got highest=%v lowest=%v", highest, lowest)
	}
}

func TestADX_TrendingSeriesYieldsElevatedReading(t *testing.T) {
	candles := buildRisingCandles(60, 2)
	result, ok := ADX(candles, 14)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if result.ADX < 0 || result.ADX > 100 {
		t.Errorf("ADX out of [0,100] bounds: %v", result.ADX)
	}
	if result.ADX < 25 {
		t.Errorf("expected an elevated ADX (>= 25) for a steadily rising series, got %v", result.ADX)
	}
}

func TestChoppinessIndex_Bounds(t *testing.T) {
	candles := buildRisingCandles(60, 1)
	choppiness, ok := ChoppinessIndex(candles, 14)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if choppiness < 0 || choppiness > 100 {
		t.Errorf("choppiness index out of [0,100] bounds: %v", choppiness)
	}
}
