package tiersolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiergraph/solver/dbapi"
	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/internal/memdb"
	"github.com/tiergraph/solver/testhelpers"
)

// boardPosition mirrors tictactoe's private base-3 encoding (cell i has
// weight 3^i) so tests can address specific boards without reaching into
// the package's internals.
func boardPosition(marks [9]int) gameapi.Position {
	var v int64
	weight := int64(1)
	for i := 0; i < 9; i++ {
		v += int64(marks[i]) * weight
		weight *= 3
	}
	return gameapi.Position(v)
}

func solveAllTiers(t *testing.T, s *Solver) {
	t.Helper()
	for tier := gameapi.Tier(9); tier >= 0; tier-- {
		solved, err := s.SolveTier(context.Background(), tier, false, false)
		require.NoError(t, err)
		require.True(t, solved, "tier %d should report newly solved", tier)
	}
}

func TestSolveTierSkipsAlreadySolvedTierWithoutForce(t *testing.T) {
	api, db := testhelpers.NewTicTacToe()
	s := New(api, db, nil, testhelpers.DefaultSolverConfig)
	ctx := context.Background()

	solved, err := s.SolveTier(ctx, 9, false, false)
	require.NoError(t, err)
	require.True(t, solved)

	solved, err = s.SolveTier(ctx, 9, false, false)
	require.NoError(t, err)
	require.False(t, solved, "second call without force should be a no-op")

	solved, err = s.SolveTier(ctx, 9, true, false)
	require.NoError(t, err)
	require.True(t, solved, "force=true should re-solve even though the tier is already solved")
}

func TestSolveAllTiersProducesConsistentPrimitives(t *testing.T) {
	api, db := testhelpers.NewTicTacToe()
	s := New(api, db, nil, testhelpers.DefaultSolverConfig)
	solveAllTiers(t, s)

	// The empty board is the textbook result: neither side can force a win
	// against perfect play.
	probe0, err := db.NewProbe(0)
	require.NoError(t, err)
	defer probe0.Close()
	initial := gameapi.TierPosition{Tier: 0, Position: api.GetInitialPosition()}
	value, err := probe0.Value(initial)
	require.NoError(t, err)
	assert.Equal(t, gameapi.Tie, value)

	// Three X's in a row with O to move: whoever is about to move already
	// lost. This is a primitive, so it is written with remoteness 0 during
	// scanning, before any iteration happens.
	loseTier := gameapi.Tier(5)
	losePos := boardPosition([9]int{1, 1, 1, 2, 2, 0, 0, 0, 0})
	loseTp := gameapi.TierPosition{Tier: loseTier, Position: losePos}
	require.True(t, api.IsLegalPosition(loseTp))
	require.Equal(t, gameapi.Lose, api.Primitive(loseTp))

	probe5, err := db.NewProbe(loseTier)
	require.NoError(t, err)
	defer probe5.Close()
	value, err = probe5.Value(loseTp)
	require.NoError(t, err)
	assert.Equal(t, gameapi.Lose, value)
	remoteness, err := probe5.Remoteness(loseTp)
	require.NoError(t, err)
	assert.Equal(t, gameapi.Remoteness(0), remoteness)

	// A full board with no winner is a primitive tie at remoteness 0.
	fullTieTp := gameapi.TierPosition{Tier: 9, Position: boardPosition([9]int{
		1, 2, 1,
		1, 2, 2,
		2, 1, 1,
	})}
	require.True(t, api.IsLegalPosition(fullTieTp))
	require.Equal(t, gameapi.Tie, api.Primitive(fullTieTp))

	probe9, err := db.NewProbe(9)
	require.NoError(t, err)
	defer probe9.Close()
	value, err = probe9.Value(fullTieTp)
	require.NoError(t, err)
	assert.Equal(t, gameapi.Tie, value)
}

func TestSolveTierReturnsGameApiErrorForOutOfRangeTier(t *testing.T) {
	api, db := testhelpers.NewTicTacToe()
	s := New(api, db, nil, testhelpers.DefaultSolverConfig)
	_, err := s.SolveTier(context.Background(), 10, false, false)
	require.Error(t, err)
	var solverErr *Error
	require.True(t, errors.As(err, &solverErr))
	assert.Equal(t, GameApiError, solverErr.Kind)
}

// divergentRefDb wraps a DbApi and flips the solved value of one position in
// one tier, so compare mode has something genuine to catch.
type divergentRefDb struct {
	db      dbapi.DbApi
	tier    gameapi.Tier
	flipPos gameapi.Position
}

func (d divergentRefDb) NewProbe(tier gameapi.Tier) (dbapi.Probe, error) {
	probe, err := d.db.NewProbe(tier)
	if err != nil {
		return nil, err
	}
	if tier != d.tier {
		return probe, nil
	}
	return &flippedProbe{inner: probe, flipPos: d.flipPos}, nil
}

type flippedProbe struct {
	inner   dbapi.Probe
	flipPos gameapi.Position
}

func (p *flippedProbe) Value(tp gameapi.TierPosition) (gameapi.Value, error) {
	value, err := p.inner.Value(tp)
	if err != nil || tp.Position != p.flipPos {
		return value, err
	}
	if value == gameapi.Tie {
		return gameapi.Win, nil
	}
	return gameapi.Tie, nil
}

func (p *flippedProbe) Remoteness(tp gameapi.TierPosition) (gameapi.Remoteness, error) {
	return p.inner.Remoteness(tp)
}

func (p *flippedProbe) Close() error { return p.inner.Close() }

func TestCompareModeAcceptsAnIdenticalReference(t *testing.T) {
	api, db := testhelpers.NewTicTacToe()
	s := New(api, db, nil, testhelpers.DefaultSolverConfig)
	solveAllTiers(t, s)

	sCompare := New(api, db, db, testhelpers.DefaultSolverConfig)
	solved, err := sCompare.SolveTier(context.Background(), 0, true, true)
	require.NoError(t, err)
	require.True(t, solved)
}

func TestCompareModeDetectsFirstDivergence(t *testing.T) {
	api, db := testhelpers.NewTicTacToe()
	s := New(api, db, nil, testhelpers.DefaultSolverConfig)
	solveAllTiers(t, s)

	refDb := divergentRefDb{db: db, tier: 0, flipPos: api.GetInitialPosition()}
	sCompare := New(api, db, refDb, testhelpers.DefaultSolverConfig)
	_, err := sCompare.SolveTier(context.Background(), 0, true, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFirstDivergence))
}

// loopyGame is a single-tier, seven-position game declared Loopy, chosen
// to exercise every outcome solveLoopy's frontier push has to handle in one
// pass: a win/lose chain, a 2-position mutual-reference cycle with no
// escape (so neither side of it is ever decided), and a tie chain. Its only
// optional GameApi capability is GetTierType, so the solve falls back to a
// ReverseGraph built during the scan phase rather than any canonical
// parent enumeration.
//
// Position layout:
//
//	2 --(move)--> none: primitive Lose
//	0 --(move)--> 2:    Win at remoteness 1 (its one child is a Lose)
//	1 --(move)--> 0:    Lose at remoteness 2 (its one child is a Win)
//	3 --(move)--> 4, 4 --(move)--> 3: no primitive reachable, both Draw
//	5 --(move)--> none: primitive Tie
//	6 --(move)--> 5:    Tie at remoteness 1 (its one child is a Tie)
type loopyGame struct{}

func (loopyGame) GetInitialTier() gameapi.Tier             { return 0 }
func (loopyGame) GetInitialPosition() gameapi.Position     { return 0 }
func (loopyGame) GetTierSize(gameapi.Tier) int64            { return 7 }
func (loopyGame) IsLegalPosition(gameapi.TierPosition) bool { return true }
func (loopyGame) GetChildTiers(gameapi.Tier) []gameapi.Tier { return []gameapi.Tier{} }
func (loopyGame) GetTierType(gameapi.Tier) gameapi.TierType { return gameapi.Loopy }

func (loopyGame) Primitive(tp gameapi.TierPosition) gameapi.Value {
	switch tp.Position {
	case 2:
		return gameapi.Lose
	case 5:
		return gameapi.Tie
	default:
		return gameapi.Undecided
	}
}

func (loopyGame) GenerateMoves(tp gameapi.TierPosition) []gameapi.Move {
	switch tp.Position {
	case 0:
		return []gameapi.Move{gameapi.Position(2)}
	case 1:
		return []gameapi.Move{gameapi.Position(0)}
	case 3:
		return []gameapi.Move{gameapi.Position(4)}
	case 4:
		return []gameapi.Move{gameapi.Position(3)}
	case 6:
		return []gameapi.Move{gameapi.Position(5)}
	default:
		return nil
	}
}

func (loopyGame) DoMove(tp gameapi.TierPosition, m gameapi.Move) gameapi.TierPosition {
	return gameapi.TierPosition{Tier: tp.Tier, Position: m.(gameapi.Position)}
}

func TestSolveLoopyTierThroughRealPushPipeline(t *testing.T) {
	api := loopyGame{}
	db := memdb.New()
	s := New(api, db, nil, testhelpers.DefaultSolverConfig)

	solved, err := s.SolveTier(context.Background(), 0, false, false)
	require.NoError(t, err)
	require.True(t, solved)

	probe, err := db.NewProbe(0)
	require.NoError(t, err)
	defer probe.Close()

	tp := func(pos gameapi.Position) gameapi.TierPosition {
		return gameapi.TierPosition{Tier: 0, Position: pos}
	}
	valueAndRemoteness := func(pos gameapi.Position) (gameapi.Value, gameapi.Remoteness) {
		value, err := probe.Value(tp(pos))
		require.NoError(t, err)
		remoteness, err := probe.Remoteness(tp(pos))
		require.NoError(t, err)
		return value, remoteness
	}

	value, remoteness := valueAndRemoteness(0)
	assert.Equal(t, gameapi.Win, value)
	assert.Equal(t, gameapi.Remoteness(1), remoteness)

	value, remoteness = valueAndRemoteness(1)
	assert.Equal(t, gameapi.Lose, value)
	assert.Equal(t, gameapi.Remoteness(2), remoteness)

	value, _ = valueAndRemoteness(2)
	assert.Equal(t, gameapi.Lose, value)

	value, _ = valueAndRemoteness(3)
	assert.Equal(t, gameapi.Draw, value)

	value, _ = valueAndRemoteness(4)
	assert.Equal(t, gameapi.Draw, value)

	value, _ = valueAndRemoteness(5)
	assert.Equal(t, gameapi.Tie, value)

	value, remoteness = valueAndRemoteness(6)
	assert.Equal(t, gameapi.Tie, value)
	assert.Equal(t, gameapi.Remoteness(1), remoteness)
}
