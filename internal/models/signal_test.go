package models

import (
	"testing"
	"time"
)

func validBuyLevels() Levels {
	return Levels{
		Entry:           100,
		StopLoss:        95,
		Target1:         105,
		Target2:         110,
		Target3:         120,
		RiskRewardRatio: 1.0,
	}
}

func validSellLevels() Levels {
	return Levels{
		Entry:           100,
		StopLoss:        105,
		Target1:         95,
		Target2:         90,
		Target3:         80,
		RiskRewardRatio: 1.0,
	}
}

func TestValidateInvariants_BuyLevelsMustBeOrdered(t *testing.T) {
	s := &Signal{
		Action:         ActionBuy,
		Levels:         validBuyLevels(),
		DynamicWeights: map[Category]float64{CategoryTrend: 1.0},
	}
	if err := s.ValidateInvariants(); err != nil {
		t.Fatalf("expected valid BUY signal, got: %v", err)
	}

	broken := validBuyLevels()
	broken.Target1 = 90 // below entry, violates ordering
	s.Levels = broken
	if err := s.ValidateInvariants(); err == nil {
		t.Fatal("expected invariant violation for mis-ordered BUY levels")
	}
}

func TestValidateInvariants_SellLevelsMustBeOrdered(t *testing.T) {
	s := &Signal{
		Action:         ActionSell,
		Levels:         validSellLevels(),
		DynamicWeights: map[Category]float64{CategoryMomentum: 1.0},
	}
	if err := s.ValidateInvariants(); err != nil {
		t.Fatalf("expected valid SELL signal, got: %v", err)
	}

	broken := validSellLevels()
	broken.Target1 = 110 // above entry, violates ordering
	s.Levels = broken
	if err := s.ValidateInvariants(); err == nil {
		t.Fatal("expected invariant violation for mis-ordered SELL levels")
	}
}

func TestValidateInvariants_RiskRewardFloor(t *testing.T) {
	s := &Signal{
		Action: ActionBuy,
		Levels: validBuyLevels(),
	}
	s.Levels.RiskRewardRatio = 0.5
	if err := s.ValidateInvariants(); err == nil {
		t.Fatal("expected rejection for risk:reward below 1.0")
	}
}

func TestValidateInvariants_HoldSkipsLevelChecks(t *testing.T) {
	s := &Signal{
		Action: ActionHold,
		Levels: Levels{}, // all zero, would fail ordering if checked
	}
	if err := s.ValidateInvariants(); err != nil {
		t.Fatalf("HOLD signals must not be subject to level ordering: %v", err)
	}
}

func TestValidateInvariants_DynamicWeightsMustSumToOne(t *testing.T) {
	s := &Signal{
		Action:         ActionHold,
		DynamicWeights: map[Category]float64{CategoryTrend: 0.3, CategoryMomentum: 0.3},
	}
	if err := s.ValidateInvariants(); err == nil {
		t.Fatal("expected rejection when dynamic weights do not sum to 1.0")
	}

	s.DynamicWeights = map[Category]float64{CategoryTrend: 0.6, CategoryMomentum: 0.4}
	if err := s.ValidateInvariants(); err != nil {
		t.Fatalf("expected acceptance of weights summing to 1.0: %v", err)
	}
}

func TestDirectionSign(t *testing.T) {
	cases := []struct {
		action Action
		want   float64
	}{
		{ActionStrongBuy, 1},
		{ActionBuy, 1},
		{ActionHold, 0},
		{ActionSell, -1},
		{ActionStrongSell, -1},
	}
	for _, c := range cases {
		s := &Signal{Action: c.action}
		if got := s.DirectionSign(); got != c.want {
			t.Errorf("DirectionSign(%s) = %v, want %v", c.action, got, c.want)
		}
	}
}

func TestSignalKey(t *testing.T) {
	s := &Signal{Symbol: "NIFTY50", Timeframe: "5m"}
	if got, want := s.Key(), "NIFTY50:5m"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if StatusActive.IsTerminal() {
		t.Error("ACTIVE must not be terminal")
	}
	terminal := []Status{StatusHitTarget, StatusHitSL, StatusClosedProfit, StatusClosedLoss, StatusExpired}
	for _, st := range terminal {
		if !st.IsTerminal() {
			t.Errorf("%s must be terminal", st)
		}
	}
}

func TestActionFamily(t *testing.T) {
	if !ActionStrongBuy.IsBuyFamily() || !ActionBuy.IsBuyFamily() {
		t.Error("expected STRONG_BUY and BUY to be buy-family")
	}
	if ActionHold.IsBuyFamily() || ActionSell.IsBuyFamily() {
		t.Error("HOLD/SELL must not be buy-family")
	}
	if !ActionStrongSell.IsSellFamily() || !ActionSell.IsSellFamily() {
		t.Error("expected STRONG_SELL and SELL to be sell-family")
	}
}

func TestSignalCreatedAtAndExpiry(t *testing.T) {
	now := time.Now()
	s := &Signal{CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if !s.ExpiresAt.After(s.CreatedAt) {
		t.Error("ExpiresAt must be after CreatedAt")
	}
}
