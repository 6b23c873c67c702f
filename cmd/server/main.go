package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/geoclash/geoclash/internal/answer"
	"github.com/geoclash/geoclash/internal/config"
	"github.com/geoclash/geoclash/internal/database"
	"github.com/geoclash/geoclash/internal/geodata"
	"github.com/geoclash/geoclash/internal/match"
	"github.com/geoclash/geoclash/internal/metrics"
	"github.com/geoclash/geoclash/internal/migrations"
	"github.com/geoclash/geoclash/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Reference data ---
	data, err := geodata.Load()
	if err != nil {
		return fmt.Errorf("loading reference data: %w", err)
	}
	logger.Info("reference data loaded")

	// --- Game core ---
	verifier := answer.NewVerifier(data.Aliases())
	store := server.NewSQLiteStore(db)
	recorder := metrics.NewRecorder()
	broker := server.NewBroker()

	matchCfg := match.Config{
		Countdown:       cfg.Countdown,
		RoundTime:       cfg.RoundTime,
		WinThreshold:    cfg.WinThreshold,
		QueueTimeout:    cfg.QueueTimeout,
		DisconnectGrace: cfg.DisconnectGrace,
		AttemptBudget:   cfg.AttemptBudget,
		RecentWindow:    cfg.RecentWindow,
	}
	orch := match.NewOrchestrator(matchCfg, data, verifier, broker, store, recorder, logger)
	solo := match.NewSoloManager(matchCfg, data, verifier, store, recorder, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		DB:           db,
		Store:        store,
		Broker:       broker,
		Orchestrator: orch,
		Solo:         solo,
		Metrics:      recorder,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
