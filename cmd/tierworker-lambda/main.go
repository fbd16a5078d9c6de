// Command tierworker-lambda is an AWS Lambda entry point that solves one
// tier per invocation and posts the outcome back over NATS, mirroring
// cmd/lambda/main.go's HandleRequest/lambda.Start/NATS-reply shape (there,
// one bot move per invocation; here, one tier solve).
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tiergraph/solver/config"
	"github.com/tiergraph/solver/distributed"
	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/internal/sqlitedb"
	"github.com/tiergraph/solver/internal/tictactoe"
	"github.com/tiergraph/solver/tiersolver"
)

var cfg *config.SolverConfig
var nc *nats.Conn

// SolveEvent is the invocation payload: solve Tier, forcing a resolve if
// ForceSolve is set, and post the JSON-encoded distributed.Reply to
// ReplyChannel over NATS if non-empty.
type SolveEvent struct {
	Tier         gameapi.Tier `json:"tier"`
	ForceSolve   bool         `json:"force_solve"`
	ReplyChannel string       `json:"reply_channel"`
	DbPath       string       `json:"db_path"`
}

func handleRequest(ctx context.Context, evt SolveEvent) (string, error) {
	logger := log.With().Int64("tier", int64(evt.Tier)).Logger()

	game := tictactoe.New()
	db, err := sqlitedb.Open(evt.DbPath, game.GetTierName)
	if err != nil {
		return "", err
	}
	defer db.Close()

	solver := tiersolver.New(game, db, nil, cfg)
	solved, solveErr := solver.SolveTier(ctx, evt.Tier, evt.ForceSolve, false)

	reply := distributed.Reply{Tier: evt.Tier, Kind: distributed.ReportSolved}
	switch {
	case solveErr != nil:
		reply.Kind = distributed.ReportError
		reply.ErrorText = solveErr.Error()
	case !solved:
		reply.Kind = distributed.ReportLoaded
	}

	if evt.ReplyChannel != "" {
		if err := postReply(logger, evt.ReplyChannel, reply); err != nil {
			logger.Err(err).Msg("failed to post reply")
		}
	}

	logger.Info().Str("outcome", replyKindString(reply.Kind)).Msg("lambda invocation complete")
	if solveErr != nil {
		return "", solveErr
	}
	return replyKindString(reply.Kind), nil
}

func postReply(logger zerolog.Logger, channel string, reply distributed.Reply) error {
	return retry.Do(
		func() error {
			_, err := nc.Request(channel, mustMarshal(reply), 3*time.Second)
			return err
		},
		retry.OnRetry(func(n uint, err error) {
			logger.Err(err).Uint("n", n).Msg("did not receive ack, retrying")
		}),
	)
}

func mustMarshal(reply distributed.Reply) []byte {
	data, err := json.Marshal(reply)
	if err != nil {
		panic(err)
	}
	return data
}

func replyKindString(k distributed.ReplyKind) string {
	switch k {
	case distributed.ReportSolved:
		return "solved"
	case distributed.ReportLoaded:
		return "loaded"
	case distributed.ReportError:
		return "error"
	default:
		return "check"
	}
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg = config.DefaultSolverConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var err error
	nc, err = nats.Connect(cfg.NatsURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}

	lambda.Start(handleRequest)
}
