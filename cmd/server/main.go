package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/candlesource"
	"github.com/ridopark/jonbu-ohlcv/internal/clock"
	"github.com/ridopark/jonbu-ohlcv/internal/combiner"
	"github.com/ridopark/jonbu-ohlcv/internal/config"
	"github.com/ridopark/jonbu-ohlcv/internal/events"
	"github.com/ridopark/jonbu-ohlcv/internal/generator"
	"github.com/ridopark/jonbu-ohlcv/internal/indicators"
	"github.com/ridopark/jonbu-ohlcv/internal/levels"
	"github.com/ridopark/jonbu-ohlcv/internal/logger"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/regime"
	"github.com/ridopark/jonbu-ohlcv/internal/scheduler"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
	"github.com/ridopark/jonbu-ohlcv/internal/store/postgres"
	"github.com/ridopark/jonbu-ohlcv/internal/tracker"
	"github.com/ridopark/jonbu-ohlcv/pkg/api/handlers"
)

const version = "1.0.0"

// Server wires the C5/C6 loops to a thin read-only HTTP presentation
// surface, mirroring the teacher's Server struct shape (config, logger,
// storage, HTTP router, lifecycle context) with the streaming/worker-pool
// internals replaced by the signal engine's own components.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger

	signals   store.SignalStore
	scheduler *scheduler.Scheduler
	generator *generator.Generator
	tracker   *tracker.Tracker

	httpServer *http.Server
	router     *mux.Router

	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	server, err := initializeServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize server: %v\n", err)
		os.Exit(1)
	}

	if err := server.Start(); err != nil {
		server.logger.Fatal().Err(err).Msg("failed to start server")
	}

	server.WaitForShutdown()
}

func initializeServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.New(cfg.Environment, cfg.LogLevel)
	appLogger.Info().Str("version", version).Msg("initializing signal engine server")

	weights, err := config.LoadWeights()
	if err != nil {
		return nil, fmt.Errorf("failed to load weight table: %w", err)
	}

	var signalStore store.SignalStore
	pgStore, err := postgres.Open(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxConnections:  cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		appLogger.Warn().Err(err).Msg("postgres signal store unavailable, falling back to in-memory store")
		signalStore = store.NewMemoryStore()
	} else {
		signalStore = pgStore
	}

	source := candlesource.NewMemorySource()
	seedSyntheticCandles(source, cfg.Engine)

	registry := indicators.NewDefaultRegistry()
	detector := regime.NewDetector()
	comb := combiner.New(weights, registry.LookupImportance)
	levelsCalc := levels.New(cfg.Engine.StopMultiplier, cfg.Engine.MinStopPercent, cfg.Engine.StopFloorDistance)
	clk := clock.NewSystemClock(nil)
	sink := events.NewChannelSink()

	gen := generator.New(cfg.Engine, source, registry, detector, comb, levelsCalc, signalStore, clk, sink, appLogger)
	trk := tracker.New(source, signalStore, clk, sink, models.TieBreakPolicy(cfg.Engine.StopVsTargetTieBreak), cfg.Engine.WorkerPoolSize, appLogger)

	sched := scheduler.New(appLogger)

	ctx, cancel := context.WithCancel(context.Background())

	router := mux.NewRouter()
	server := &Server{
		cfg:        cfg,
		logger:     appLogger,
		signals:    signalStore,
		scheduler:  sched,
		generator:  gen,
		tracker:    trk,
		router:     router,
		ctx:        ctx,
		cancel:     cancel,
	}
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      server.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return server, nil
}

// seedSyntheticCandles populates the in-memory candle source with a
// deterministic warm-up history per configured slot. A real market-data
// vendor integration is out of scope (spec.md Non-goals); this keeps the
// generator loop runnable end to end without one.
func seedSyntheticCandles(source *candlesource.MemorySource, cfg config.EngineConfig) {
	start := time.Now().Add(-500 * time.Hour)
	for _, symbol := range cfg.Symbols {
		for _, timeframe := range cfg.Timeframes {
			gen := candlesource.SyntheticGenerator{
				Symbol: symbol, Timeframe: timeframe,
				BasePrice: 1000, TrendPerBar: 0.5, NoiseAmplitude: 3, BaseVolume: 10000,
			}
			candles := gen.Generate(start, 300, barDuration(timeframe))
			source.Append(symbol, timeframe, candles...)
		}
	}
}

func barDuration(timeframe string) time.Duration {
	switch timeframe {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

func (s *Server) setupRoutes() {
	if s.cfg.Server.EnableCORS {
		s.router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}
				next.ServeHTTP(w, r)
			})
		})
	}

	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Info().
				Str("method", r.Method).Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).Dur("duration", time.Since(start)).
				Msg("http request")
		})
	})

	healthHandler := handlers.NewHealthHandler(s.signals, version)
	s.router.HandleFunc("/health", healthHandler.GetHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	signalsHandler := handlers.NewSignalsHandler(s.signals)
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/signals/active", signalsHandler.GetActiveSignals).Methods(http.MethodGet)
	api.HandleFunc("/signals/{symbol}/{timeframe}", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		signalsHandler.GetSignalBySlot(w, r, vars["symbol"], vars["timeframe"])
	}).Methods(http.MethodGet)

	s.logger.Info().Msg("routes configured")
}

// Start launches the generator/tracker scheduler and the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("starting server")

	if err := s.scheduler.Every(s.ctx, schedulerJob("generator", s.cfg.Engine.GeneratorPeriodSeconds, s.generator.Tick, s.generator.OnOverrun)); err != nil {
		return fmt.Errorf("registering generator job: %w", err)
	}
	if err := s.scheduler.Every(s.ctx, schedulerJob("tracker", s.cfg.Engine.TrackerPeriodSeconds, s.tracker.Tick, nil)); err != nil {
		return fmt.Errorf("registering tracker job: %w", err)
	}
	s.scheduler.Start()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	return nil
}

func schedulerJob(name string, periodSeconds int, fn func(context.Context), onOverrun func(string)) scheduler.Job {
	return scheduler.Job{
		Name:      name,
		Interval:  time.Duration(periodSeconds) * time.Second,
		Fn:        fn,
		OnOverrun: onOverrun,
	}
}

// WaitForShutdown blocks until an interrupt signal and performs a
// graceful shutdown of the HTTP server and the scheduler.
func (s *Server) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("http server shutdown error")
	}

	s.scheduler.Stop(ctx)
	s.cancel()

	s.logger.Info().Msg("server shutdown complete")
}
