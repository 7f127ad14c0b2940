// Package postgres adapts store.SignalStore onto PostgreSQL via
// database/sql + lib/pq, mirroring the teacher's internal/database
// connection-pooling and prepared-statement idiom (connection.go,
// ohlcv_repository.go) applied to the signal domain instead of OHLCV rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/logger"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
)

// Config mirrors the teacher's DatabaseConfig shape (connection.go).
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// Store is a concrete SignalStore backed by a `signals` table: indexed
// columns for the query shapes the core actually needs (active lookup,
// slot dedup), with the full Signal persisted as JSONB — the "opaque
// signal store" of §6 gets a real adapter instead of staying vacuous.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger

	upsertStmt       *sql.Stmt
	findActiveStmt   *sql.Stmt
	findBySlotStmt   *sql.Stmt
	updateStatusStmt *sql.Stmt
}

// schema is applied defensively on Open so a fresh database is usable
// without a separate migration step; durable schema migration tooling is
// a non-goal (spec.md §1) this adapter does not attempt to replace.
const schema = `
CREATE TABLE IF NOT EXISTS signals (
	id          TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	timeframe   TEXT NOT NULL,
	ts          TIMESTAMPTZ NOT NULL,
	status      TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (symbol, timeframe, ts)
);
CREATE INDEX IF NOT EXISTS signals_active_idx ON signals (symbol, timeframe) WHERE status = 'ACTIVE';
`

// Open connects to Postgres, configures pooling per cfg (teacher's
// connection.go REQ-014 idiom), and ensures the schema exists.
func Open(cfg Config) (*Store, error) {
	log := logger.NewContextLogger("signal_store_postgres")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("applying signal store schema: %w", err)
	}

	s := &Store{db: db, logger: log}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("preparing signal store statements: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("signal store connected")
	return s, nil
}

func (s *Store) prepareStatements() error {
	var err error
	s.upsertStmt, err = s.db.Prepare(`
		INSERT INTO signals (id, symbol, timeframe, ts, status, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, timeframe, ts) DO NOTHING
	`)
	if err != nil {
		return err
	}

	s.findActiveStmt, err = s.db.Prepare(`
		SELECT payload FROM signals WHERE status = 'ACTIVE' ORDER BY symbol, timeframe, ts
	`)
	if err != nil {
		return err
	}

	s.findBySlotStmt, err = s.db.Prepare(`
		SELECT payload FROM signals
		WHERE status = 'ACTIVE' AND symbol = $1 AND timeframe = $2
		ORDER BY ts DESC LIMIT 1
	`)
	if err != nil {
		return err
	}

	s.updateStatusStmt, err = s.db.Prepare(`
		UPDATE signals SET status = $2, payload = jsonb_set(payload, '{status}', to_jsonb($2::text))
		WHERE id = $1 AND status = 'ACTIVE'
	`)
	return err
}

// Close releases prepared statements and the underlying connection pool.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.upsertStmt, s.findActiveStmt, s.findBySlotStmt, s.updateStatusStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

// UpsertSignal implements store.SignalStore; idempotent via the unique
// (symbol, timeframe, ts) constraint, matching §8's round-trip property.
func (s *Store) UpsertSignal(ctx context.Context, signal models.Signal) error {
	start := time.Now()
	defer func() { logger.LogPerformance(s.logger, "upsert_signal", start, true) }()

	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshaling signal payload: %w", err)
	}

	_, err = s.upsertStmt.ExecContext(ctx, signal.ID, signal.Symbol, signal.Timeframe, signal.Timestamp, signal.Status, payload)
	if err != nil {
		logger.LogError(s.logger, err, "failed to upsert signal", map[string]interface{}{
			"symbol": signal.Symbol, "timeframe": signal.Timeframe,
		})
		return fmt.Errorf("upserting signal: %w", err)
	}
	return nil
}

// FindActive implements store.SignalStore.
func (s *Store) FindActive(ctx context.Context) ([]models.Signal, error) {
	rows, err := s.findActiveStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying active signals: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

// FindActiveBySlot implements store.SignalStore.
func (s *Store) FindActiveBySlot(ctx context.Context, symbol, timeframe string) (*models.Signal, error) {
	var payload []byte
	err := s.findBySlotStmt.QueryRowContext(ctx, symbol, timeframe).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active signal for slot: %w", err)
	}
	var sig models.Signal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return nil, fmt.Errorf("unmarshaling signal payload: %w", err)
	}
	return &sig, nil
}

// UpdateStatus implements store.SignalStore: a single linearizable
// conditional update guarded by `status = 'ACTIVE'` at the SQL layer, so
// lifecycle transitions can never race each other (§5).
func (s *Store) UpdateStatus(ctx context.Context, id string, update store.TerminalUpdate) error {
	res, err := s.updateStatusStmt.ExecContext(ctx, id, update.Status)
	if err != nil {
		return fmt.Errorf("updating signal status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("signal %s not found or already terminal", id)
	}

	// Persist the full performance payload as a second pass: the status
	// column drives the WHERE-guarded transition above, the JSONB payload
	// carries the rest of the terminal fields for readers.
	payload, err := json.Marshal(update.Performance)
	if err != nil {
		return fmt.Errorf("marshaling performance payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE signals SET payload = jsonb_set(payload, '{performance}', $2::jsonb) WHERE id = $1`,
		id, payload,
	)
	if err != nil {
		return fmt.Errorf("persisting performance payload: %w", err)
	}
	return nil
}

func scanSignals(rows *sql.Rows) ([]models.Signal, error) {
	out := make([]models.Signal, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning signal row: %w", err)
		}
		var sig models.Signal
		if err := json.Unmarshal(payload, &sig); err != nil {
			return nil, fmt.Errorf("unmarshaling signal payload: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating signal rows: %w", err)
	}
	return out, nil
}
