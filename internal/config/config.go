package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root of the enumerated configuration surface (§6). Every
// symbol/timeframe/threshold the generator and tracker loops read flows
// through this tree, following the teacher's internal/config shape:
// mapstructure tags, BindEnv per field, SetDefault for every optional
// value, and a Validate() pass that aborts startup on a bad config (§7:
// "unrecoverable configuration errors at startup abort the process with a
// precise diagnostic").
type Config struct {
	Environment string         `mapstructure:"environment" validate:"oneof=development staging production"`
	LogLevel    string         `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Engine      EngineConfig   `mapstructure:"engine"`
	Database    DatabaseConfig `mapstructure:"database"`
	Server      ServerConfig   `mapstructure:"server"`
}

// EngineConfig is §6's enumerated configuration surface, verbatim.
type EngineConfig struct {
	Symbols    []string `mapstructure:"symbols" validate:"required,min=1,dive,required"`
	Timeframes []string `mapstructure:"timeframes" validate:"required,min=1,dive,oneof=1m 5m 15m 30m 1h 1d"`

	GeneratorPeriodSeconds int `mapstructure:"generator_period_seconds" validate:"min=1"`
	TrackerPeriodSeconds   int `mapstructure:"tracker_period_seconds" validate:"min=1"`
	FetchTimeoutSeconds    int `mapstructure:"fetch_timeout_seconds" validate:"min=1"`
	MinCandlesRequired     int `mapstructure:"min_candles_required" validate:"min=1"`
	RefreshIntervalSeconds int `mapstructure:"refresh_interval_seconds" validate:"min=1"`
	ExpirySeconds          int `mapstructure:"expiry_seconds" validate:"min=1"`

	MinConfidenceToEmit float64 `mapstructure:"min_confidence_to_emit" validate:"min=0,max=100"`
	StopMultiplier      float64 `mapstructure:"stop_multiplier" validate:"gt=0"`
	MinStopPercent      float64 `mapstructure:"min_stop_percent" validate:"gt=0"`
	StopFloorDistance   float64 `mapstructure:"stop_floor_distance" validate:"gt=0"`
	RiskRewardFloor     float64 `mapstructure:"risk_reward_floor" validate:"gt=0"`

	WorkerPoolSize int `mapstructure:"worker_pool_size" validate:"min=1"`

	// VenueSessions maps symbol -> venue key (resolved against
	// internal/clock's builtin session table, e.g. "NSE", "DOWJONES").
	// Generalizes the source's hard-coded NSE hours (§9 open question):
	// DOWJONES needs a different schedule and gets one via this map.
	VenueSessions map[string]string `mapstructure:"venue_sessions"`

	// StopVsTargetTieBreak resolves the single-candle stop+target overlap
	// ambiguity (§6); CONSERVATIVE is the pinned default.
	StopVsTargetTieBreak string `mapstructure:"stop_vs_target_tie_break" validate:"oneof=CONSERVATIVE AGGRESSIVE TIMESTAMP_ORDER"`
}

// DatabaseConfig configures the Postgres-backed SignalStore
// (internal/store/postgres), unchanged in shape from the teacher's
// DatabaseConfig.
type DatabaseConfig struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	User            string `mapstructure:"user" validate:"required"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name" validate:"required"`
	SSLMode         string `mapstructure:"ssl_mode" validate:"oneof=disable require verify-ca verify-full"`
	MaxConnections  int    `mapstructure:"max_connections" validate:"min=1,max=100"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"min=1"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" validate:"min=60"`
}

// ServerConfig configures the thin read-only HTTP presentation surface
// (pkg/api) — health, signal listing, and a Prometheus /metrics route.
type ServerConfig struct {
	HTTPPort     int    `mapstructure:"http_port" validate:"min=1024,max=65535"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout" validate:"min=1"`
	WriteTimeout int    `mapstructure:"write_timeout" validate:"min=1"`
	EnableCORS   bool   `mapstructure:"enable_cors"`
}

// Load reads configuration from config/.env (if present) and the
// environment, applies defaults, and validates the result (§7).
func Load() (*Config, error) {
	if err := godotenv.Load("config/.env"); err != nil {
		if os.Getenv("ENVIRONMENT") == "" {
			fmt.Printf("Warning: No .env file found, using environment variables only\n")
		}
	}

	viper.SetConfigType("env")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnv()
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Symbols/timeframes/venue map arrive as delimited strings over the
	// environment; viper's automatic env binding does not split them, so
	// they are parsed explicitly here.
	cfg.Engine.Symbols = splitAndTrim(viper.GetString("engine.symbols"))
	cfg.Engine.Timeframes = splitAndTrim(viper.GetString("engine.timeframes"))
	for i, tf := range cfg.Engine.Timeframes {
		cfg.Engine.Timeframes[i] = strings.ToLower(tf)
	}
	cfg.Engine.VenueSessions = parseVenueSessions(viper.GetString("engine.venue_sessions"))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnv() {
	_ = viper.BindEnv("environment", "ENVIRONMENT")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("engine.symbols", "ENGINE_SYMBOLS")
	_ = viper.BindEnv("engine.timeframes", "ENGINE_TIMEFRAMES")
	_ = viper.BindEnv("engine.generator_period_seconds", "ENGINE_GENERATOR_PERIOD_SECONDS")
	_ = viper.BindEnv("engine.tracker_period_seconds", "ENGINE_TRACKER_PERIOD_SECONDS")
	_ = viper.BindEnv("engine.fetch_timeout_seconds", "ENGINE_FETCH_TIMEOUT_SECONDS")
	_ = viper.BindEnv("engine.min_candles_required", "ENGINE_MIN_CANDLES_REQUIRED")
	_ = viper.BindEnv("engine.refresh_interval_seconds", "ENGINE_REFRESH_INTERVAL_SECONDS")
	_ = viper.BindEnv("engine.expiry_seconds", "ENGINE_EXPIRY_SECONDS")
	_ = viper.BindEnv("engine.min_confidence_to_emit", "ENGINE_MIN_CONFIDENCE_TO_EMIT")
	_ = viper.BindEnv("engine.stop_multiplier", "ENGINE_STOP_MULTIPLIER")
	_ = viper.BindEnv("engine.min_stop_percent", "ENGINE_MIN_STOP_PERCENT")
	_ = viper.BindEnv("engine.stop_floor_distance", "ENGINE_STOP_FLOOR_DISTANCE")
	_ = viper.BindEnv("engine.risk_reward_floor", "ENGINE_RISK_REWARD_FLOOR")
	_ = viper.BindEnv("engine.worker_pool_size", "ENGINE_WORKER_POOL_SIZE")
	_ = viper.BindEnv("engine.venue_sessions", "ENGINE_VENUE_SESSIONS")
	_ = viper.BindEnv("engine.stop_vs_target_tie_break", "ENGINE_STOP_VS_TARGET_TIE_BREAK")

	_ = viper.BindEnv("database.host", "DATABASE_HOST")
	_ = viper.BindEnv("database.port", "DATABASE_PORT")
	_ = viper.BindEnv("database.user", "DATABASE_USER")
	_ = viper.BindEnv("database.password", "DATABASE_PASSWORD")
	_ = viper.BindEnv("database.name", "DATABASE_NAME")
	_ = viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	_ = viper.BindEnv("database.max_connections", "DATABASE_MAX_CONNECTIONS")
	_ = viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	_ = viper.BindEnv("database.conn_max_lifetime", "DATABASE_CONN_MAX_LIFETIME")

	_ = viper.BindEnv("server.http_port", "SERVER_HTTP_PORT")
	_ = viper.BindEnv("server.host", "SERVER_HOST")
	_ = viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	_ = viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	_ = viper.BindEnv("server.enable_cors", "SERVER_ENABLE_CORS")
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("engine.symbols", "NIFTY50,BANKNIFTY")
	viper.SetDefault("engine.timeframes", "5m,15m")
	viper.SetDefault("engine.generator_period_seconds", 60)
	viper.SetDefault("engine.tracker_period_seconds", 60)
	viper.SetDefault("engine.fetch_timeout_seconds", 10)
	viper.SetDefault("engine.min_candles_required", 30)
	viper.SetDefault("engine.refresh_interval_seconds", 120)
	viper.SetDefault("engine.expiry_seconds", 14400)
	viper.SetDefault("engine.min_confidence_to_emit", 55)
	viper.SetDefault("engine.stop_multiplier", 1.5)
	viper.SetDefault("engine.min_stop_percent", 0.005)
	viper.SetDefault("engine.stop_floor_distance", 1.0)
	viper.SetDefault("engine.risk_reward_floor", 1.0)
	viper.SetDefault("engine.worker_pool_size", 4)
	viper.SetDefault("engine.venue_sessions", "NIFTY50=NSE,BANKNIFTY=NSE,DOWJONES=DOWJONES")
	viper.SetDefault("engine.stop_vs_target_tie_break", "CONSERVATIVE")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "signal_engine")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 10)
	viper.SetDefault("server.write_timeout", 10)
	viper.SetDefault("server.enable_cors", true)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseVenueSessions parses "SYMBOL=VENUE,SYMBOL=VENUE" pairs.
func parseVenueSessions(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(kv[0]))
		value := strings.ToUpper(strings.TrimSpace(kv[1]))
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// Validate runs go-playground/validator over the loaded Config — the
// teacher declared `validate:"..."` tags but never executed the
// validator; this repo finally runs it (§7 "unrecoverable configuration
// errors ... abort the process with a precise diagnostic").
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	for _, symbol := range c.Engine.Symbols {
		if _, ok := c.Engine.VenueSessions[symbol]; !ok {
			return fmt.Errorf("config: symbol %q has no venue_sessions entry", symbol)
		}
	}
	return nil
}

// String renders the config with sensitive fields masked, mirroring the
// teacher's masking convention for logs.
func (c *Config) String() string {
	masked := *c
	masked.Database.Password = "***"
	return fmt.Sprintf("%+v", masked)
}

// ParseBool wraps strconv.ParseBool for "0/1" style boolean overrides
// from shell scripts. Nothing in this repository calls it.
func ParseBool(s string) (bool, error) {
	return strconv.ParseBool(s)
}
