// Package levels implements C4: entry/stop/target calculation from an
// action, current price, and the prevailing ATR.
package levels

import "github.com/ridopark/jonbu-ohlcv/internal/models"

// Calculator derives trade levels from a stop distance floor configured
// two ways (ATR multiple and a minimum percent of price), whichever is
// larger.
type Calculator struct {
	stopMultiplier float64
	minStopPercent float64
	floorDistance  float64
}

// New constructs a Calculator. floorDistance is the last-resort stop
// distance used when both the ATR-based and percent-based distances are
// degenerate (§4.4: "fall back to a configured floor distance, or
// downgrade action to HOLD with an alert").
func New(stopMultiplier, minStopPercent, floorDistance float64) *Calculator {
	return &Calculator{
		stopMultiplier: stopMultiplier,
		minStopPercent: minStopPercent,
		floorDistance:  floorDistance,
	}
}

// Calculate produces the Levels for a non-HOLD action. ok is false when
// even the configured floor distance is degenerate (non-positive), in
// which case the caller must downgrade the signal to HOLD and alert.
func (c *Calculator) Calculate(currentPrice float64, action models.Action, atr float64) (models.Levels, bool) {
	stopDistance := c.stopMultiplier * atr
	if percentDistance := c.minStopPercent * currentPrice; percentDistance > stopDistance {
		stopDistance = percentDistance
	}
	if stopDistance <= 0 {
		stopDistance = c.floorDistance
	}
	if stopDistance <= 0 {
		return models.Levels{}, false
	}

	entry := currentPrice
	var stopLoss, t1, t2, t3 float64

	switch {
	case action.IsBuyFamily():
		stopLoss = entry - stopDistance
		t1 = entry + stopDistance
		t2 = entry + 2*stopDistance
		t3 = entry + 3*stopDistance
	case action.IsSellFamily():
		stopLoss = entry + stopDistance
		t1 = entry - stopDistance
		t2 = entry - 2*stopDistance
		t3 = entry - 3*stopDistance
	default:
		return models.Levels{}, true
	}

	return models.Levels{
		Entry:           entry,
		StopLoss:        stopLoss,
		Target1:         t1,
		Target2:         t2,
		Target3:         t3,
		RiskRewardRatio: 1.0, // target1 is exactly 1R by construction
	}, true
}
