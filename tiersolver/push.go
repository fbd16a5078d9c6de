package tiersolver

import (
	"context"
	"sort"

	"github.com/tiergraph/solver/frontier"
	"github.com/tiergraph/solver/gameapi"
)

// step4PushFrontierUp propagates decided values up to their parents,
// remoteness level by remoteness level. Lose and win frontiers at each
// remoteness are processed before moving to the next remoteness; tie
// frontiers are processed afterward, across all remotenesses, since a tie
// can only be certain once every win/lose consequence has been resolved.
func (s *Solver) step4PushFrontierUp(ctx context.Context, st *solveState) error {
	remMax := gameapi.Remoteness(s.cfg.RemotenessMax)
	for r := gameapi.Remoteness(0); r <= remMax; r++ {
		if err := s.pushFrontierHelper(ctx, st, st.loseFrontiers, r, s.processLosePosition); err != nil {
			return newError(GameApiError, int64(st.tier), err)
		}
		if err := s.pushFrontierHelper(ctx, st, st.winFrontiers, r, s.processWinPosition); err != nil {
			return newError(GameApiError, int64(st.tier), err)
		}
	}
	for r := gameapi.Remoteness(0); r <= remMax; r++ {
		if err := s.pushFrontierHelper(ctx, st, st.tieFrontiers, r, s.processTiePosition); err != nil {
			return newError(GameApiError, int64(st.tier), err)
		}
	}
	return nil
}

type frontierProcessor func(st *solveState, tid int, remoteness gameapi.Remoteness, tp gameapi.TierPosition) error

// pushFrontierHelper processes every record at remoteness across all
// per-thread frontiers. Each record's originating frontier and child tier
// are located by binary search over cumulative bucket-size offsets (across
// threads) and per-bucket dividers (across child indices) — a direct
// generalization of the original's incrementally-hinted linear scan, at
// the cost of a log-factor per record instead of amortized O(1).
func (s *Solver) pushFrontierHelper(ctx context.Context, st *solveState, frontiers []*frontier.Frontier, remoteness gameapi.Remoteness, process frontierProcessor) error {
	offsets := make([]int64, len(frontiers)+1)
	for i, f := range frontiers {
		offsets[i+1] = offsets[i] + f.BucketSize(remoteness)
	}
	total := offsets[len(frontiers)]

	if total > 0 {
		err := parallelFor(ctx, st.numThreads, total, func(tid int, i int64) error {
			frontierID := sort.Search(len(offsets), func(k int) bool { return offsets[k] > i }) - 1
			indexInFrontier := i - offsets[frontierID]
			dividers := frontiers[frontierID].Dividers(remoteness)
			childIndex := sort.Search(len(dividers), func(k int) bool { return indexInFrontier < dividers[k] })
			position := frontiers[frontierID].GetPosition(remoteness, indexInFrontier)
			tp := gameapi.TierPosition{Tier: st.childTiers[childIndex], Position: position}
			return process(st, tid, remoteness, tp)
		})
		if err != nil {
			return err
		}
	}

	for _, f := range frontiers {
		f.FreeRemoteness(remoteness)
	}
	return nil
}

// processLoseOrTiePosition implements both the lose-frontier and
// tie-frontier propagation rule: every still-undecided parent of a
// lose/tie child immediately achieves its best possible outcome
// (win/tie respectively) at remoteness+1, so the parent's counter is
// unconditionally zeroed rather than decremented.
func (s *Solver) processLoseOrTiePosition(st *solveState, tid int, remoteness gameapi.Remoteness, tp gameapi.TierPosition, parentValue gameapi.Value, dest []*frontier.Frontier) error {
	parents := s.parentsOf(st, tp)
	for _, p := range parents {
		prev := st.counters.exchangeToZero(int64(p))
		if prev == 0 {
			continue // Parent already solved by an earlier event.
		}
		if err := s.db.SetValue(p, parentValue); err != nil {
			return err
		}
		if err := s.db.SetRemoteness(p, remoteness+1); err != nil {
			return err
		}
		if err := dest[tid].Add(p, remoteness+1, st.selfIndex); err != nil {
			return err
		}
	}
	return nil
}

func (s *Solver) processLosePosition(st *solveState, tid int, remoteness gameapi.Remoteness, tp gameapi.TierPosition) error {
	return s.processLoseOrTiePosition(st, tid, remoteness, tp, gameapi.Win, st.winFrontiers)
}

func (s *Solver) processTiePosition(st *solveState, tid int, remoteness gameapi.Remoteness, tp gameapi.TierPosition) error {
	return s.processLoseOrTiePosition(st, tid, remoteness, tp, gameapi.Tie, st.tieFrontiers)
}

// processWinPosition implements the win-frontier propagation rule: a
// parent only becomes a lose once every one of its children is known to
// be a win, which this detects by decrementing its counter and checking
// for the unique 1->0 transition.
func (s *Solver) processWinPosition(st *solveState, tid int, remoteness gameapi.Remoteness, tp gameapi.TierPosition) error {
	parents := s.parentsOf(st, tp)
	for _, p := range parents {
		prev := st.counters.decrementIfNonZero(int64(p))
		if prev != 1 {
			continue
		}
		if err := s.db.SetValue(p, gameapi.Lose); err != nil {
			return err
		}
		if err := s.db.SetRemoteness(p, remoteness+1); err != nil {
			return err
		}
		if err := st.loseFrontiers[tid].Add(p, remoteness+1, st.selfIndex); err != nil {
			return err
		}
	}
	return nil
}

func (s *Solver) parentsOf(st *solveState, tp gameapi.TierPosition) []gameapi.Position {
	if parents, ok := s.res.canonicalParents(tp, st.tier); ok {
		return parents
	}
	return st.revGraph.PopParentsOf(tp)
}
