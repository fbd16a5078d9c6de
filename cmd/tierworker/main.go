// Command tierworker runs a tier-solver worker against the tic-tac-toe
// example game, either standalone (solving every tier bottom-up) or, with
// -distributed, as a NATS-connected worker taking assignments from a
// manager. It plays the same role for this module that
// cmd/analyzer-worker/main.go plays for macondo: a thin flag-parsing,
// signal-handling shell around the package that does the real work.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tiergraph/solver/config"
	"github.com/tiergraph/solver/dbapi"
	"github.com/tiergraph/solver/distributed"
	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/internal/sqlitedb"
	"github.com/tiergraph/solver/internal/tictactoe"
	"github.com/tiergraph/solver/tiersolver"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	dbPath := flag.String("db", "tictactoe.db", "sqlite database path")
	distributedMode := flag.Bool("distributed", false, "run as a NATS-connected worker instead of solving standalone")
	subject := flag.String("subject", "tiersolver.manager", "NATS subject the manager listens on")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.DefaultSolverConfig()
	if err := cfg.Load(flag.Args()); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	game := tictactoe.New()
	db, err := sqlitedb.Open(*dbPath, game.GetTierName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	if *distributedMode {
		runDistributed(ctx, cfg, *subject, game, db)
		return
	}
	runStandalone(ctx, cfg, game, db)
}

func runStandalone(ctx context.Context, cfg *config.SolverConfig, game gameapi.GameApi, db dbapi.DbApi) {
	solver := tiersolver.New(game, db, nil, cfg)
	for tier := gameapi.Tier(9); tier >= 0; tier-- {
		if _, err := solver.SolveTier(ctx, tier, false, false); err != nil {
			log.Fatal().Err(err).Int64("tier", int64(tier)).Msg("tier solve failed")
		}
	}
	log.Info().Msg("all tiers solved")
}

func runDistributed(ctx context.Context, cfg *config.SolverConfig, subject string, game gameapi.GameApi, db dbapi.DbApi) {
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	w := distributed.NewWorker(cfg, nc, subject, game, db, nil)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("worker failed")
	}
	log.Info().Msg("worker stopped")
}
