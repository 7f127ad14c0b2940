package levels

import (
	"testing"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

func TestCalculate_BuyLevelsOrderedAndOneR(t *testing.T) {
	c := New(2.0, 0.005, 0.1)
	levels, ok := c.Calculate(100, models.ActionBuy, 1.0)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if levels.RiskRewardRatio != 1.0 {
		t.Errorf("target1 must be exactly 1R by construction, got %v", levels.RiskRewardRatio)
	}
	if !(levels.StopLoss < levels.Entry && levels.Entry < levels.Target1 &&
		levels.Target1 < levels.Target2 && levels.Target2 < levels.Target3) {
		t.Errorf("BUY levels must be strictly ordered stop < entry < t1 < t2 < t3, got %+v", levels)
	}
}

func TestCalculate_SellLevelsOrdered(t *testing.T) {
	c := New(2.0, 0.005, 0.1)
	levels, ok := c.Calculate(100, models.ActionSell, 1.0)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !(levels.StopLoss > levels.Entry && levels.Entry > levels.Target1 &&
		levels.Target1 > levels.Target2 && levels.Target2 > levels.Target3) {
		t.Errorf("SELL levels must be strictly ordered stop > entry > t1 > t2 > t3, got %+v", levels)
	}
}

func TestCalculate_PercentFloorOverridesTinyATR(t *testing.T) {
	c := New(2.0, 0.05, 0.1) // 5% floor dominates a near-zero ATR
	levels, ok := c.Calculate(100, models.ActionBuy, 0.001)
	if !ok {
		t.Fatal("expected ok=true")
	}
	wantDistance := 5.0 // 5% of 100
	gotDistance := levels.Entry - levels.StopLoss
	if gotDistance < wantDistance-1e-9 || gotDistance > wantDistance+1e-9 {
		t.Errorf("expected percent-based floor distance %v, got %v", wantDistance, gotDistance)
	}
}

func TestCalculate_DegenerateFloorReturnsNotOK(t *testing.T) {
	c := New(0, 0, 0) // every distance source is zero
	_, ok := c.Calculate(100, models.ActionBuy, 0)
	if ok {
		t.Error("expected ok=false when stop distance is degenerate even after floor fallback")
	}
}

func TestCalculate_HoldActionReturnsZeroLevelsButOK(t *testing.T) {
	c := New(2.0, 0.005, 0.1)
	levels, ok := c.Calculate(100, models.ActionHold, 1.0)
	if !ok {
		t.Error("HOLD must not be treated as a degenerate-floor failure")
	}
	if levels != (models.Levels{}) {
		t.Errorf("expected zero-value levels for HOLD, got %+v", levels)
	}
}
