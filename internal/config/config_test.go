package config

import (
	"strings"
	"testing"
)

func validEngineConfig() EngineConfig {
	return EngineConfig{
		Symbols:                []string{"NIFTY50"},
		Timeframes:             []string{"5m"},
		GeneratorPeriodSeconds: 60,
		TrackerPeriodSeconds:   60,
		FetchTimeoutSeconds:    10,
		MinCandlesRequired:     30,
		RefreshIntervalSeconds: 120,
		ExpirySeconds:          14400,
		MinConfidenceToEmit:    55,
		StopMultiplier:         1.5,
		MinStopPercent:         0.005,
		StopFloorDistance:      1.0,
		RiskRewardFloor:        1.0,
		WorkerPoolSize:         4,
		VenueSessions:          map[string]string{"NIFTY50": "NSE"},
		StopVsTargetTieBreak:   "CONSERVATIVE",
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Engine:      validEngineConfig(),
		Database: DatabaseConfig{
			Host: "localhost", Port: 5432, User: "postgres", Name: "signal_engine",
			SSLMode: "disable", MaxConnections: 25, MaxIdleConns: 5, ConnMaxLifetime: 300,
		},
		Server: ServerConfig{HTTPPort: 8080, Host: "0.0.0.0", ReadTimeout: 10, WriteTimeout: 10},
	}
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected a well-formed config to validate, got: %v", err)
	}
}

func TestValidate_RejectsMissingVenueSessionEntry(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Symbols = []string{"NIFTY50", "RELIANCE"} // RELIANCE has no venue mapping
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection of a symbol missing a venue_sessions entry")
	}
}

func TestValidate_RejectsUnknownEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "sandbox"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection of an unrecognized environment")
	}
}

func TestValidate_RejectsInvalidTieBreakPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.StopVsTargetTieBreak = "RANDOM"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection of an unrecognized tie-break policy")
	}
}

func TestValidate_RejectsEmptySymbols(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Symbols = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection of an empty symbol list")
	}
}

func TestValidate_RejectsOutOfRangeConfidence(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.MinConfidenceToEmit = 150
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection of a confidence threshold above 100")
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" nifty50 , banknifty ,, dowjones")
	want := []string{"NIFTY50", "BANKNIFTY", "DOWJONES"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseVenueSessions(t *testing.T) {
	got := parseVenueSessions("nifty50=nse, dowjones=dowjones")
	if got["NIFTY50"] != "NSE" || got["DOWJONES"] != "DOWJONES" {
		t.Errorf("unexpected parse result: %v", got)
	}
}

func TestParseVenueSessions_IgnoresMalformedPairs(t *testing.T) {
	got := parseVenueSessions("NIFTY50=NSE,garbage,,=novalue")
	if len(got) != 1 {
		t.Errorf("expected malformed pairs to be skipped, got %v", got)
	}
}

func TestString_MasksDatabasePassword(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Password = "supersecret"
	rendered := cfg.String()
	if strings.Contains(rendered, "supersecret") {
		t.Error("expected database password to be masked in String() output")
	}
	if !strings.Contains(rendered, "***") {
		t.Error("expected masked placeholder in String() output")
	}
}
