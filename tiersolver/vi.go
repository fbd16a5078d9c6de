package tiersolver

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/tiergraph/solver/gameapi"
)

// solveValueIteration implements the loop-free alternative: rather than
// building frontiers and a reverse graph, it holds every child tier in
// memory and relaxes undecided positions to a fixed point, first over
// win/lose remoteness and then over tie remoteness. It trades memory
// (every child tier loaded at once) for the bookkeeping the loopy
// algorithm needs to tolerate in-tier cycles, and is only correct for
// tiers GetTierType reports as LoopFree or Immediate.
func (s *Solver) solveValueIteration(ctx context.Context, tier gameapi.Tier) error {
	children := s.api.GetChildTiers(tier)
	if children == nil {
		return newError(GameApiError, int64(tier), errChildTiers(tier))
	}
	tierSize := s.api.GetTierSize(tier)
	if tierSize == gameapi.IllegalSize {
		return newError(GameApiError, int64(tier), errTierSize(tier))
	}

	log.Info().Int64("tier", int64(tier)).Msg("value-iteration solve started")

	largestWinLose, largestTie, err := s.viLoadChildren(children)
	if err != nil {
		return newError(DbError, int64(tier), err)
	}
	defer func() {
		for _, c := range children {
			_ = s.db.UnloadTier(c)
		}
	}()

	if err := s.db.CreateSolvingTier(tier, tierSize); err != nil {
		return newError(OutOfMemory, int64(tier), err)
	}

	if err := s.viScanTier(ctx, tier, tierSize); err != nil {
		return newError(GameApiError, int64(tier), err)
	}

	numThreads := s.numThreads()
	if err := s.viIterateWinLose(ctx, tier, tierSize, numThreads, largestWinLose); err != nil {
		return newError(GameApiError, int64(tier), err)
	}
	if err := s.viIterateTie(ctx, tier, tierSize, numThreads, largestTie); err != nil {
		return newError(GameApiError, int64(tier), err)
	}

	s.viInvertTransientMarks(ctx, tier, tierSize, numThreads)

	if err := s.step6SaveValues(); err != nil {
		return newError(DbError, int64(tier), err)
	}
	log.Info().Int64("tier", int64(tier)).Msg("value-iteration solve complete")
	return nil
}

func (s *Solver) viLoadChildren(children []gameapi.Tier) (largestWinLose, largestTie gameapi.Remoteness, err error) {
	for _, child := range children {
		size := s.api.GetTierSize(child)
		if size == gameapi.IllegalSize {
			return 0, 0, errTierSize(child)
		}
		if err := s.db.LoadTier(child, size); err != nil {
			return 0, 0, err
		}
		for pos := int64(0); pos < size; pos++ {
			value, err := s.db.GetValueFromLoaded(child, gameapi.Position(pos))
			if err != nil {
				return 0, 0, err
			}
			remoteness, err := s.db.GetRemotenessFromLoaded(child, gameapi.Position(pos))
			if err != nil {
				return 0, 0, err
			}
			switch value {
			case gameapi.Win, gameapi.Lose:
				if remoteness > largestWinLose {
					largestWinLose = remoteness
				}
			case gameapi.Tie:
				if remoteness > largestTie {
					largestTie = remoteness
				}
			}
		}
	}
	return largestWinLose, largestTie, nil
}

// viScanTier marks illegal/non-canonical positions as a transient Draw
// (inverted back to Undecided in viInvertTransientMarks) and writes
// primitives directly; every other position is left Undecided for the
// iteration phases to resolve.
func (s *Solver) viScanTier(ctx context.Context, tier gameapi.Tier, size int64) error {
	return parallelFor(ctx, s.numThreads(), size, func(_ int, pos int64) error {
		tp := gameapi.TierPosition{Tier: tier, Position: gameapi.Position(pos)}
		if !s.api.IsLegalPosition(tp) || !s.res.isCanonicalPosition(tp) {
			return s.db.SetValue(tp.Position, gameapi.Draw)
		}
		value := s.api.Primitive(tp)
		if value == gameapi.Undecided {
			return nil
		}
		if err := s.db.SetValue(tp.Position, value); err != nil {
			return err
		}
		return s.db.SetRemoteness(tp.Position, 0)
	})
}

func (s *Solver) viChildValueRemoteness(tier gameapi.Tier, child gameapi.TierPosition) (gameapi.Value, gameapi.Remoteness, error) {
	if child.Tier == tier {
		v, err := s.db.GetValue(child.Position)
		if err != nil {
			return 0, 0, err
		}
		r, err := s.db.GetRemoteness(child.Position)
		return v, r, err
	}
	v, err := s.db.GetValueFromLoaded(child.Tier, child.Position)
	if err != nil {
		return 0, 0, err
	}
	r, err := s.db.GetRemotenessFromLoaded(child.Tier, child.Position)
	return v, r, err
}

// viIterateWinLose relaxes undecided positions to a win/lose fixed point.
// A position becomes win at iteration i as soon as it has a lose child at
// remoteness i-1. A position becomes lose at iteration i once every child
// is a win and the largest such child remoteness is exactly i-1 — i.e. the
// sweep must continue past the point a position's last child was decided.
func (s *Solver) viIterateWinLose(ctx context.Context, tier gameapi.Tier, size int64, numThreads int, largestWinLose gameapi.Remoteness) error {
	for i := gameapi.Remoteness(1); ; i++ {
		var updated atomic.Bool
		err := parallelFor(ctx, numThreads, size, func(_ int, pos int64) error {
			value, err := s.db.GetValue(gameapi.Position(pos))
			if err != nil {
				return err
			}
			if value != gameapi.Undecided {
				return nil
			}
			posUpdated, err := s.viIterateWinLoseOne(tier, gameapi.Position(pos), i)
			if err != nil {
				return err
			}
			if posUpdated {
				updated.Store(true)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if !updated.Load() && i > largestWinLose+1 {
			return nil
		}
	}
}

func (s *Solver) viIterateWinLoseOne(tier gameapi.Tier, pos gameapi.Position, iteration gameapi.Remoteness) (bool, error) {
	tp := gameapi.TierPosition{Tier: tier, Position: pos}
	children, err := s.res.canonicalChildren(tp)
	if err != nil {
		return false, err
	}

	allWin := true
	largestWin := gameapi.Remoteness(-1)
	for _, child := range children {
		value, remoteness, err := s.viChildValueRemoteness(tier, child)
		if err != nil {
			return false, err
		}
		switch value {
		case gameapi.Undecided, gameapi.Tie, gameapi.Draw:
			allWin = false
		case gameapi.Lose:
			allWin = false
			if remoteness == iteration-1 {
				if err := s.db.SetValue(pos, gameapi.Win); err != nil {
					return false, err
				}
				if err := s.db.SetRemoteness(pos, iteration); err != nil {
					return false, err
				}
				return true, nil
			}
		case gameapi.Win:
			if remoteness > largestWin {
				largestWin = remoteness
			}
		}
	}

	if allWin && largestWin+1 == iteration {
		if err := s.db.SetValue(pos, gameapi.Lose); err != nil {
			return false, err
		}
		if err := s.db.SetRemoteness(pos, iteration); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// viIterateTie relaxes remaining undecided positions to a tie fixed point:
// a position becomes tie at iteration i once it has a tie child at
// remoteness i-1.
func (s *Solver) viIterateTie(ctx context.Context, tier gameapi.Tier, size int64, numThreads int, largestTie gameapi.Remoteness) error {
	for i := gameapi.Remoteness(1); ; i++ {
		var updated atomic.Bool
		err := parallelFor(ctx, numThreads, size, func(_ int, pos int64) error {
			value, err := s.db.GetValue(gameapi.Position(pos))
			if err != nil {
				return err
			}
			if value != gameapi.Undecided {
				return nil
			}
			posUpdated, err := s.viIterateTieOne(tier, gameapi.Position(pos), i)
			if err != nil {
				return err
			}
			if posUpdated {
				updated.Store(true)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if !updated.Load() && i > largestTie+1 {
			return nil
		}
	}
}

func (s *Solver) viIterateTieOne(tier gameapi.Tier, pos gameapi.Position, iteration gameapi.Remoteness) (bool, error) {
	tp := gameapi.TierPosition{Tier: tier, Position: pos}
	children, err := s.res.canonicalChildren(tp)
	if err != nil {
		return false, err
	}

	for _, child := range children {
		value, remoteness, err := s.viChildValueRemoteness(tier, child)
		if err != nil {
			return false, err
		}
		if value == gameapi.Tie && remoteness == iteration-1 {
			if err := s.db.SetValue(pos, gameapi.Tie); err != nil {
				return false, err
			}
			if err := s.db.SetRemoteness(pos, iteration); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *Solver) viInvertTransientMarks(ctx context.Context, tier gameapi.Tier, size int64, numThreads int) {
	_ = parallelFor(ctx, numThreads, size, func(_ int, pos int64) error {
		value, err := s.db.GetValue(gameapi.Position(pos))
		if err != nil {
			return err
		}
		switch value {
		case gameapi.Draw:
			// This was an illegal/non-canonical position marked Draw as a
			// transient placeholder in viScanTier; restore it to Undecided
			// since no one queries illegal positions.
			return s.db.SetValue(gameapi.Position(pos), gameapi.Undecided)
		case gameapi.Undecided:
			// Never resolved by either fixed point: a genuine draw.
			return s.db.SetValue(gameapi.Position(pos), gameapi.Draw)
		default:
			return nil
		}
	})
	_ = tier
}
