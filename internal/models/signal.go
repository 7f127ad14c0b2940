package models

import "time"

// Action is the combiner's directional decision (§4.3 action mapping).
type Action string

const (
	ActionStrongBuy  Action = "STRONG_BUY"
	ActionBuy        Action = "BUY"
	ActionHold       Action = "HOLD"
	ActionSell       Action = "SELL"
	ActionStrongSell Action = "STRONG_SELL"
)

// IsBuyFamily reports whether the action is directionally bullish.
func (a Action) IsBuyFamily() bool {
	return a == ActionStrongBuy || a == ActionBuy
}

// IsSellFamily reports whether the action is directionally bearish.
func (a Action) IsSellFamily() bool {
	return a == ActionStrongSell || a == ActionSell
}

// Status is the signal lifecycle state (§3 Lifecycle). ACTIVE is the only
// mutable state; every other value is terminal and irreversible.
type Status string

const (
	StatusActive        Status = "ACTIVE"
	StatusHitTarget      Status = "HIT_TARGET"
	StatusHitSL          Status = "HIT_SL"
	StatusClosedProfit   Status = "CLOSED_PROFIT"
	StatusClosedLoss     Status = "CLOSED_LOSS"
	StatusExpired        Status = "EXPIRED"
)

// IsTerminal reports whether status is a sink in the lifecycle DAG.
func (s Status) IsTerminal() bool {
	return s != StatusActive
}

// Outcome is the realized win/loss classification of a terminal signal.
type Outcome string

const (
	OutcomePending Outcome = "PENDING"
	OutcomeWin     Outcome = "WIN"
	OutcomeLoss    Outcome = "LOSS"
)

// TargetHit records which level, if any, terminated the signal.
type TargetHit string

const (
	TargetHitNone        TargetHit = "NONE"
	TargetHitTarget1     TargetHit = "TARGET1"
	TargetHitTarget2     TargetHit = "TARGET2"
	TargetHitTarget3     TargetHit = "TARGET3"
	TargetHitStopLoss    TargetHit = "STOPLOSS"
	TargetHitMarketClose TargetHit = "MARKET_CLOSE"
)

// TieBreakPolicy resolves the case where a single candle's range covers
// both the stop-loss and a target (§6 stopVsTargetTieBreak).
type TieBreakPolicy string

const (
	TieBreakConservative   TieBreakPolicy = "CONSERVATIVE"
	TieBreakAggressive     TieBreakPolicy = "AGGRESSIVE"
	TieBreakTimestampOrder TieBreakPolicy = "TIMESTAMP_ORDER"
)

// Levels holds the trade-level calculator's output (C4, §4.4).
type Levels struct {
	Entry            float64 `json:"entry"`
	StopLoss         float64 `json:"stop_loss"`
	Target1          float64 `json:"target1"`
	Target2          float64 `json:"target2"`
	Target3          float64 `json:"target3"`
	RiskRewardRatio  float64 `json:"risk_reward_ratio"`
}

// CategoryScore is the per-category aggregation output (§3, §4.3).
type CategoryScore struct {
	Category        Category `json:"category"`
	WeightedScore   float64  `json:"weighted_score"` // [-100, 100]
	AveragePower    float64  `json:"average_power"`  // [0.5, 1.0]
	ContributorCount int     `json:"contributor_count"`
	AgreementRatio  float64  `json:"agreement_ratio"` // [0, 1]
}

// Performance records the outcome of a terminated signal (§3).
type Performance struct {
	Outcome           Outcome   `json:"outcome"`
	ExitPrice         float64   `json:"exit_price,omitempty"`
	ExitTime          time.Time `json:"exit_time,omitempty"`
	TargetHit         TargetHit `json:"target_hit"`
	ProfitLoss        float64   `json:"profit_loss,omitempty"`
	ProfitLossPercent float64   `json:"profit_loss_percent,omitempty"`
	Remarks           string    `json:"remarks,omitempty"`
}

// Signal is the full decision record emitted by the generator and walked
// to a terminal outcome by the tracker (§3).
type Signal struct {
	ID             string             `json:"id"`
	Symbol         string             `json:"symbol"`
	Timeframe      string             `json:"timeframe"`
	Timestamp      time.Time          `json:"timestamp"`
	CurrentPrice   float64            `json:"current_price"`
	Action         Action             `json:"action"`
	Confidence     float64            `json:"confidence"` // [0, 100]
	Strength       Strength           `json:"strength"`
	Levels         Levels             `json:"levels"`
	CategoryScores []CategoryScore    `json:"category_scores"`
	TotalScore     float64            `json:"total_score"` // [-100, 100]
	NormalizedScore float64           `json:"normalized_score"`
	MarketRegime   MarketRegime       `json:"market_regime"`
	DynamicWeights map[Category]float64 `json:"dynamic_weights"`
	Reasoning      []string           `json:"reasoning"`
	Alerts         []string           `json:"alerts"`
	Status         Status             `json:"status"`
	Performance    Performance        `json:"performance"`
	CreatedAt      time.Time          `json:"created_at"`
	ExpiresAt      time.Time          `json:"expires_at"`

	// IndicatorSnapshot is a diagnostic-only audit trail (SPEC_FULL
	// supplement): the raw per-indicator results that produced this
	// signal, kept in the signal's JSON for operator inspection (the CLI
	// tables do not print it). It never
	// participates in any invariant or downstream scoring.
	IndicatorSnapshot []IndicatorResult `json:"indicator_snapshot,omitempty"`
}

// Key identifies the (symbol, timeframe) slot a signal belongs to.
func (s *Signal) Key() string {
	return s.Symbol + ":" + s.Timeframe
}

// DirectionSign returns +1 for the BUY family, -1 for the SELL family, and
// 0 for HOLD — used throughout the tracker's P&L arithmetic.
func (s *Signal) DirectionSign() float64 {
	switch {
	case s.Action.IsBuyFamily():
		return 1
	case s.Action.IsSellFamily():
		return -1
	default:
		return 0
	}
}

// ValidateInvariants checks the structural invariants of §3/§8 that must
// hold for every signal before it may be persisted.
func (s *Signal) ValidateInvariants() error {
	sum := 0.0
	for _, w := range s.DynamicWeights {
		sum += w
	}
	if len(s.DynamicWeights) > 0 && (sum < 1.0-1e-6 || sum > 1.0+1e-6) {
		return &SignalError{Field: "dynamic_weights", Value: sum, Message: "dynamic weights must sum to 1.0"}
	}

	if s.Action != ActionHold {
		if s.Levels.RiskRewardRatio < 1.0-1e-9 {
			return &SignalError{Field: "risk_reward_ratio", Value: s.Levels.RiskRewardRatio, Message: "risk:reward ratio must be >= 1.0 for non-HOLD signals"}
		}
		if s.Action.IsBuyFamily() {
			if !(s.Levels.StopLoss < s.Levels.Entry && s.Levels.Entry < s.Levels.Target1 &&
				s.Levels.Target1 < s.Levels.Target2 && s.Levels.Target2 < s.Levels.Target3) {
				return &SignalError{Field: "levels", Message: "BUY levels must satisfy stopLoss < entry < target1 < target2 < target3"}
			}
		}
		if s.Action.IsSellFamily() {
			if !(s.Levels.StopLoss > s.Levels.Entry && s.Levels.Entry > s.Levels.Target1 &&
				s.Levels.Target1 > s.Levels.Target2 && s.Levels.Target2 > s.Levels.Target3) {
				return &SignalError{Field: "levels", Message: "SELL levels must satisfy stopLoss > entry > target1 > target2 > target3"}
			}
		}
	}

	return nil
}
