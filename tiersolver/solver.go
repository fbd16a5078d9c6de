// Package tiersolver implements the retrograde tier-by-tier game solver:
// a bottom-up backward-induction algorithm that computes, for every
// position in one tier, its win/lose/tie/draw value and remoteness, given
// that every child tier has already been solved.
package tiersolver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tiergraph/solver/config"
	"github.com/tiergraph/solver/dbapi"
	"github.com/tiergraph/solver/frontier"
	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/reversegraph"
)

// ErrFirstDivergence is wrapped into the returned *Error when compare mode
// finds a position whose freshly solved value/remoteness disagrees with a
// reference database.
var ErrFirstDivergence = errors.New("tiersolver: compare mode found a divergent position")

// Solver owns no state between SolveTier calls; everything scoped to one
// tier solve lives in a per-call solveState, replacing the original
// implementation's module-scoped current_api/this_tier collaborators with
// an explicit context threaded through every phase.
type Solver struct {
	api   gameapi.GameApi
	db    dbapi.DbApi
	refDb dbapi.ReferenceDbApi
	cfg   *config.SolverConfig
	res   *resolver
}

// New builds a Solver bound to one game and one database. refDb may be nil
// unless compare mode is used.
func New(api gameapi.GameApi, db dbapi.DbApi, refDb dbapi.ReferenceDbApi, cfg *config.SolverConfig) *Solver {
	if cfg == nil {
		cfg = config.DefaultSolverConfig()
	}
	return &Solver{api: api, db: db, refDb: refDb, cfg: cfg, res: newResolver(api, cfg)}
}

func (s *Solver) numThreads() int {
	if s.cfg.Threads > 0 {
		return s.cfg.Threads
	}
	return runtime.NumCPU()
}

// solveState holds everything scoped to one SolveTier call.
type solveState struct {
	tier        gameapi.Tier
	tierSize    int64
	childTiers  []gameapi.Tier // child tiers, with tier itself appended at the end
	selfIndex   int
	numThreads  int
	useRevGraph bool
	revGraph    *reversegraph.ReverseGraph

	winFrontiers  []*frontier.Frontier
	loseFrontiers []*frontier.Frontier
	tieFrontiers  []*frontier.Frontier

	counters *counters
}

// SolveTier solves tier, persisting its value/remoteness table through the
// Solver's DbApi. If force is false and the tier is already solved, this
// is a no-op that returns (false, nil). If compare is true, every position
// is cross-checked against refDb after solving and the first divergence is
// returned as an error.
func (s *Solver) SolveTier(ctx context.Context, tier gameapi.Tier, force, compare bool) (solved bool, err error) {
	if !force && s.db.TierStatus(tier) == dbapi.StatusSolved {
		return false, nil
	}

	switch s.res.tierType(tier) {
	case gameapi.LoopFree, gameapi.Immediate:
		if err := s.solveValueIteration(ctx, tier); err != nil {
			return false, err
		}
	default:
		if err := s.solveLoopy(ctx, tier); err != nil {
			return false, err
		}
	}

	if compare {
		if err := s.compareTier(tier); err != nil {
			return true, err
		}
	}

	return true, nil
}

func (s *Solver) solveLoopy(ctx context.Context, tier gameapi.Tier) error {
	st, err := s.step0Initialize(tier)
	if err != nil {
		return err
	}
	defer s.step7Cleanup(st)

	log.Info().Int64("tier", int64(tier)).Int("child_tiers", len(st.childTiers)-1).Msg("tier solve started")

	if err := s.step1LoadChildren(ctx, st); err != nil {
		return newError(GameApiError, int64(tier), err)
	}
	if err := s.step2SetupSolverArrays(st); err != nil {
		return newError(OutOfMemory, int64(tier), err)
	}
	if err := s.step3ScanTier(ctx, st); err != nil {
		return err
	}
	if err := s.step4PushFrontierUp(ctx, st); err != nil {
		return err
	}
	s.step5MarkDrawPositions(ctx, st)
	logRemotenessHistogram(tier, s.collectSolvedRemotenesses(st))
	if err := s.step6SaveValues(); err != nil {
		return newError(DbError, int64(tier), err)
	}

	log.Info().Int64("tier", int64(tier)).Msg("tier solve complete")
	return nil
}

// collectSolvedRemotenesses is only used to feed the debug-only remoteness
// histogram; it is skipped entirely unless debug logging is enabled.
func (s *Solver) collectSolvedRemotenesses(st *solveState) []float64 {
	if !log.Debug().Enabled() {
		return nil
	}
	remotenesses := make([]float64, 0, st.tierSize)
	for pos := int64(0); pos < st.tierSize; pos++ {
		if st.counters.isIllegal(pos) {
			continue
		}
		value, err := s.db.GetValue(gameapi.Position(pos))
		if err != nil || value == gameapi.Draw || value == gameapi.Undecided {
			continue
		}
		remoteness, err := s.db.GetRemoteness(gameapi.Position(pos))
		if err != nil {
			continue
		}
		remotenesses = append(remotenesses, float64(remoteness))
	}
	return remotenesses
}

func (s *Solver) step0Initialize(tier gameapi.Tier) (*solveState, error) {
	children := s.api.GetChildTiers(tier)
	if children == nil {
		return nil, newError(GameApiError, int64(tier), fmt.Errorf("GetChildTiers(%d) failed", tier))
	}

	st := &solveState{
		tier:        tier,
		useRevGraph: !s.res.hasParentEnumerator(),
		numThreads:  s.numThreads(),
	}
	if st.useRevGraph {
		st.revGraph = reversegraph.New(children)
	}

	st.childTiers = append(append([]gameapi.Tier{}, children...), tier)
	st.selfIndex = len(st.childTiers) - 1

	size := s.api.GetTierSize(tier)
	if size == gameapi.IllegalSize {
		return nil, newError(GameApiError, int64(tier), fmt.Errorf("GetTierSize(%d) failed", tier))
	}
	st.tierSize = size

	memPct := int(s.cfg.MemoryFraction * 100)
	remMax := gameapi.Remoteness(s.cfg.RemotenessMax)
	st.winFrontiers = make([]*frontier.Frontier, st.numThreads)
	st.loseFrontiers = make([]*frontier.Frontier, st.numThreads)
	st.tieFrontiers = make([]*frontier.Frontier, st.numThreads)
	for i := 0; i < st.numThreads; i++ {
		st.winFrontiers[i] = frontier.New(len(st.childTiers), memPct, remMax)
		st.loseFrontiers[i] = frontier.New(len(st.childTiers), memPct, remMax)
		st.tieFrontiers[i] = frontier.New(len(st.childTiers), memPct, remMax)
	}

	return st, nil
}

func (s *Solver) checkAndLoadFrontier(st *solveState, tid, childIndex int, position gameapi.Position, value gameapi.Value, remoteness gameapi.Remoteness) error {
	if remoteness < 0 {
		return fmt.Errorf("probed remoteness %d < 0 for position %d", remoteness, position)
	}
	switch value {
	case gameapi.Undecided, gameapi.Draw:
		return nil
	case gameapi.Win:
		return st.winFrontiers[tid].Add(position, remoteness, childIndex)
	case gameapi.Lose:
		return st.loseFrontiers[tid].Add(position, remoteness, childIndex)
	case gameapi.Tie:
		return st.tieFrontiers[tid].Add(position, remoteness, childIndex)
	default:
		return fmt.Errorf("unrecognized probed value %v for position %d", value, position)
	}
}

// step1LoadChildren loads every non-draw record from each child tier into
// this solve's frontiers. Child tiers are processed sequentially so that
// records within a frontier bucket remain grouped by child index in
// increasing order, as Frontier's dividers discipline requires; the scan
// within one child tier is itself parallel.
func (s *Solver) step1LoadChildren(ctx context.Context, st *solveState) error {
	numChildTiers := len(st.childTiers) - 1
	for childIndex := 0; childIndex < numChildTiers; childIndex++ {
		childTier := st.childTiers[childIndex]
		var err error
		if s.res.isCanonicalTier(childTier) {
			err = s.loadCanonicalChildTier(ctx, st, childIndex, childTier)
		} else {
			err = s.loadNonCanonicalChildTier(ctx, st, childIndex, childTier)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Solver) loadCanonicalChildTier(ctx context.Context, st *solveState, childIndex int, childTier gameapi.Tier) error {
	size := s.api.GetTierSize(childTier)
	if size == gameapi.IllegalSize {
		return fmt.Errorf("GetTierSize(%d) failed", childTier)
	}
	return parallelFor(ctx, st.numThreads, size, func(tid int, position int64) error {
		probe, err := s.db.NewProbe(childTier)
		if err != nil {
			return err
		}
		defer probe.Close()
		tp := gameapi.TierPosition{Tier: childTier, Position: gameapi.Position(position)}
		value, err := probe.Value(tp)
		if err != nil {
			return err
		}
		if value == gameapi.Undecided || value == gameapi.Draw {
			return nil
		}
		remoteness, err := probe.Remoteness(tp)
		if err != nil {
			return err
		}
		return s.checkAndLoadFrontier(st, tid, childIndex, tp.Position, value, remoteness)
	})
}

func (s *Solver) loadNonCanonicalChildTier(ctx context.Context, st *solveState, childIndex int, childTier gameapi.Tier) error {
	canonicalTier := s.res.canonicalTier(childTier)
	size := s.api.GetTierSize(canonicalTier)
	if size == gameapi.IllegalSize {
		return fmt.Errorf("GetTierSize(%d) failed", canonicalTier)
	}
	return parallelFor(ctx, st.numThreads, size, func(tid int, position int64) error {
		probe, err := s.db.NewProbe(canonicalTier)
		if err != nil {
			return err
		}
		defer probe.Close()
		canonicalTp := gameapi.TierPosition{Tier: canonicalTier, Position: gameapi.Position(position)}
		value, err := probe.Value(canonicalTp)
		if err != nil {
			return err
		}
		if value == gameapi.Undecided || value == gameapi.Draw {
			return nil
		}
		remoteness, err := probe.Remoteness(canonicalTp)
		if err != nil {
			return err
		}
		noncanonicalPos := s.res.positionInSymmetricTier(canonicalTp, childTier)
		return s.checkAndLoadFrontier(st, tid, childIndex, noncanonicalPos, value, remoteness)
	})
}

func (s *Solver) step2SetupSolverArrays(st *solveState) error {
	if err := s.db.CreateSolvingTier(st.tier, st.tierSize); err != nil {
		return err
	}
	st.counters = newCounters(st.tierSize)
	return nil
}

// step3ScanTier counts the canonical children of every legal canonical
// position, emits primitives directly into the frontier at remoteness 0,
// and (if no GetCanonicalParentPositions is available) registers every
// position as a parent of its children in the reverse graph.
func (s *Solver) step3ScanTier(ctx context.Context, st *solveState) error {
	err := parallelFor(ctx, st.numThreads, st.tierSize, func(tid int, position int64) error {
		tp := gameapi.TierPosition{Tier: st.tier, Position: gameapi.Position(position)}
		if !s.api.IsLegalPosition(tp) || !s.res.isCanonicalPosition(tp) {
			st.counters.setIllegal(position)
			return nil
		}

		value := s.api.Primitive(tp)
		if value != gameapi.Undecided {
			if err := s.db.SetValue(tp.Position, value); err != nil {
				return err
			}
			if err := s.db.SetRemoteness(tp.Position, 0); err != nil {
				return err
			}
			if err := s.checkAndLoadFrontier(st, tid, st.selfIndex, tp.Position, value, 0); err != nil {
				return err
			}
			st.counters.set(position, 0)
			return nil
		}

		numChildren, err := s.countAndMaybeRegisterChildren(st, tp)
		if err != nil {
			return err
		}
		if numChildren <= 0 {
			return fmt.Errorf("position %v is non-primitive but reports %d canonical children", tp, numChildren)
		}
		if numChildren > maxChildren {
			return fmt.Errorf("position %v has %d canonical children, exceeding the %d-child limit", tp, numChildren, maxChildren)
		}
		st.counters.set(position, numChildren)
		return nil
	})
	if err != nil {
		return newError(GameApiError, int64(st.tier), err)
	}

	for i := 0; i < st.numThreads; i++ {
		st.winFrontiers[i].AccumulateDividers()
		st.loseFrontiers[i].AccumulateDividers()
		st.tieFrontiers[i].AccumulateDividers()
	}
	return nil
}

func (s *Solver) countAndMaybeRegisterChildren(st *solveState, tp gameapi.TierPosition) (int, error) {
	if !st.useRevGraph {
		return s.res.numCanonicalChildren(tp)
	}
	children, err := s.res.canonicalChildren(tp)
	if err != nil {
		return 0, err
	}
	for _, child := range children {
		if err := st.revGraph.Add(child, tp.Position); err != nil {
			return 0, err
		}
	}
	return len(children), nil
}

func (s *Solver) step5MarkDrawPositions(ctx context.Context, st *solveState) {
	// Parallel, like the other scanning phases: the only side effect is a
	// DbApi write to this position's own index, and concurrent writes to
	// disjoint indices are safe. Correctness does not depend on ordering.
	_ = parallelFor(ctx, st.numThreads, st.tierSize, func(_ int, position int64) error {
		if st.counters.isIllegal(position) {
			return nil
		}
		if st.counters.get(position) > 0 {
			return s.db.SetValue(gameapi.Position(position), gameapi.Draw)
		}
		return nil
	})
}

func (s *Solver) step6SaveValues() error {
	if err := s.db.FlushSolvingTier(); err != nil {
		return err
	}
	return s.db.FreeSolvingTier()
}

func (s *Solver) step7Cleanup(st *solveState) {
	if st == nil {
		return
	}
	if st.revGraph != nil {
		st.revGraph.Destroy()
	}
}

func (s *Solver) compareTier(tier gameapi.Tier) error {
	if s.refDb == nil {
		return newError(DbError, int64(tier), fmt.Errorf("compare mode requested but no reference database configured"))
	}
	size := s.api.GetTierSize(tier)
	fresh, err := s.db.NewProbe(tier)
	if err != nil {
		return newError(DbError, int64(tier), err)
	}
	defer fresh.Close()
	ref, err := s.refDb.NewProbe(tier)
	if err != nil {
		return newError(DbError, int64(tier), err)
	}
	defer ref.Close()

	for pos := int64(0); pos < size; pos++ {
		tp := gameapi.TierPosition{Tier: tier, Position: gameapi.Position(pos)}
		freshValue, err := fresh.Value(tp)
		if err != nil {
			return newError(DbError, int64(tier), err)
		}
		refValue, err := ref.Value(tp)
		if err != nil {
			return newError(DbError, int64(tier), err)
		}
		freshRemoteness, _ := fresh.Remoteness(tp)
		refRemoteness, _ := ref.Remoteness(tp)
		if freshValue != refValue || freshRemoteness != refRemoteness {
			return newError(DbError, int64(tier), fmt.Errorf("%w: position %d: fresh=(%v,%d) reference=(%v,%d)",
				ErrFirstDivergence, pos, freshValue, freshRemoteness, refValue, refRemoteness))
		}
	}
	return nil
}

// parallelFor statically partitions [0, n) into numThreads contiguous
// chunks and runs fn over each in its own goroutine. fn receives a stable
// thread id in [0, numThreads) usable to index per-thread resources such
// as Frontiers. The first error from any chunk is returned; the other
// chunks are not interrupted and run to completion.
func parallelFor(ctx context.Context, numThreads int, n int64, fn func(tid int, i int64) error) error {
	if n == 0 {
		return nil
	}
	if numThreads < 1 {
		numThreads = 1
	}
	g, _ := errgroup.WithContext(ctx)
	chunk := (n + int64(numThreads) - 1) / int64(numThreads)
	for t := 0; t < numThreads; t++ {
		tid := t
		lo := int64(tid) * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := fn(tid, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
