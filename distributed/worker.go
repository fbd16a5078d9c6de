// Package distributed implements the worker side of the manager/worker
// protocol described in spec.md §4.6: a cooperative loop that checks in
// with a manager, sleeps or terminates on command, and solves tiers on
// request, reporting the outcome back on its next check-in.
package distributed

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/tiergraph/solver/config"
	"github.com/tiergraph/solver/dbapi"
	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/tiersolver"
)

// Worker polls a manager over NATS for tiers to solve. It is the
// message-passing replacement for the original's MPI rank-0/rank-N split,
// and for this module's own HTTP job-queue worker it supersedes.
type Worker struct {
	cfg    *config.SolverConfig
	client *managerClient
	solver *tiersolver.Solver
}

// NewWorker builds a Worker bound to one game, one database, and one
// manager subject.
func NewWorker(cfg *config.SolverConfig, nc *nats.Conn, subject string, api gameapi.GameApi, db dbapi.DbApi, refDb dbapi.ReferenceDbApi) *Worker {
	return &Worker{
		cfg:    cfg,
		client: newManagerClient(nc, subject, 3*time.Second),
		solver: tiersolver.New(api, db, refDb, cfg),
	}
}

// Run starts the worker's check-in loop. It returns when ctx is canceled or
// the manager sends Terminate.
func (w *Worker) Run(ctx context.Context) error {
	log.Info().Str("subject", w.client.subject).Msg("starting distributed tier worker")

	pending := Reply{Kind: Check}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			return ctx.Err()
		default:
		}

		cmd, err := w.client.send(ctx, pending)
		if err != nil {
			return err
		}

		switch cmd.Kind {
		case Sleep:
			log.Debug().Msg("manager said sleep")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.cfg.DistributedSleep):
			}
			pending = Reply{Kind: Check}

		case Terminate:
			log.Info().Msg("manager said terminate")
			return nil

		case Solve, ForceSolve:
			log.Info().Int64("tier", int64(cmd.Tier)).Bool("force", cmd.Kind == ForceSolve).Msg("manager assigned tier")
			pending = w.solveAndReport(ctx, cmd)

		default:
			log.Warn().Int("kind", int(cmd.Kind)).Msg("unrecognized command kind")
			pending = Reply{Kind: Check}
		}
	}
}

func (w *Worker) solveAndReport(ctx context.Context, cmd Command) Reply {
	solved, err := w.solver.SolveTier(ctx, cmd.Tier, cmd.Kind == ForceSolve, false)
	if err != nil {
		var tsErr *tiersolver.Error
		code := -1
		if errors.As(err, &tsErr) {
			code = int(tsErr.Kind)
		}
		log.Error().Err(err).Int64("tier", int64(cmd.Tier)).Msg("tier solve failed")
		return Reply{Kind: ReportError, Tier: cmd.Tier, ErrorCode: code, ErrorText: err.Error()}
	}
	if !solved {
		log.Debug().Int64("tier", int64(cmd.Tier)).Msg("tier was already solved")
		return Reply{Kind: ReportLoaded, Tier: cmd.Tier}
	}
	log.Info().Int64("tier", int64(cmd.Tier)).Msg("tier solved")
	return Reply{Kind: ReportSolved, Tier: cmd.Tier}
}
