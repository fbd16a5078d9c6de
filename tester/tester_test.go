package tester

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/internal/tictactoe"
)

// linearGame is a tiny single-tier game (0 -> 1 -> 2, 2 is a primitive loss)
// implementing every optional capability Tester can discover, so tests can
// exercise checks 4 and 5 directly instead of only their fallback paths.
// When brokenParents is set, GetCanonicalParentPositions always reports no
// parents, which should trip check 4.
type linearGame struct {
	brokenParents bool
}

func (g linearGame) GetInitialTier() gameapi.Tier         { return 0 }
func (g linearGame) GetInitialPosition() gameapi.Position { return 0 }
func (g linearGame) GetTierSize(tier gameapi.Tier) int64 {
	if tier != 0 {
		return gameapi.IllegalSize
	}
	return 3
}
func (g linearGame) GenerateMoves(tp gameapi.TierPosition) []gameapi.Move {
	if tp.Position >= 2 {
		return nil
	}
	return []gameapi.Move{tp.Position + 1}
}
func (g linearGame) DoMove(tp gameapi.TierPosition, m gameapi.Move) gameapi.TierPosition {
	return gameapi.TierPosition{Tier: tp.Tier, Position: m.(gameapi.Position)}
}
func (g linearGame) Primitive(tp gameapi.TierPosition) gameapi.Value {
	if tp.Position == 2 {
		return gameapi.Lose
	}
	return gameapi.Undecided
}
func (g linearGame) IsLegalPosition(tp gameapi.TierPosition) bool {
	return tp.Tier == 0 && tp.Position >= 0 && tp.Position < 3
}
func (g linearGame) GetChildTiers(tier gameapi.Tier) []gameapi.Tier { return []gameapi.Tier{} }

func (g linearGame) GetCanonicalPosition(tp gameapi.TierPosition) gameapi.Position { return tp.Position }

func (g linearGame) GetCanonicalChildPositions(tp gameapi.TierPosition) []gameapi.TierPosition {
	if tp.Position >= 2 {
		return []gameapi.TierPosition{}
	}
	return []gameapi.TierPosition{{Tier: tp.Tier, Position: tp.Position + 1}}
}

func (g linearGame) GetCanonicalParentPositions(child gameapi.TierPosition, parentTier gameapi.Tier) []gameapi.Position {
	if g.brokenParents || child.Position == 0 {
		return []gameapi.Position{}
	}
	return []gameapi.Position{child.Position - 1}
}

func (g linearGame) GetPositionInSymmetricTier(tp gameapi.TierPosition, symmTier gameapi.Tier) gameapi.Position {
	return tp.Position
}

func (g linearGame) GetCanonicalTier(tier gameapi.Tier) gameapi.Tier { return tier }

func TestTesterPassesAConsistentLinearGame(t *testing.T) {
	tester := New(linearGame{})
	err := tester.Test(1, 0, []gameapi.Tier{0}, 10)
	require.NoError(t, err)
}

func TestTesterDetectsChildParentReciprocityFailure(t *testing.T) {
	tester := New(linearGame{brokenParents: true})
	err := tester.Test(1, 0, []gameapi.Tier{0}, 10)
	require.Error(t, err)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ChildParentReciprocity, failure.Kind)
	assert.Equal(t, gameapi.TierPosition{Tier: 0, Position: 0}, failure.Position)
}

func TestTesterPassesTicTacToeViaFallbackPaths(t *testing.T) {
	// Of the capabilities Tester discovers, tictactoe.Game implements only
	// CanonicalPositioner, so this exercises
	// Tester's GenerateMoves+DoMove canonical-child fallback and the
	// identity fallback for tier symmetry, with checks 4 and 5 skipped
	// entirely since there is no CanonicalParentEnumerator.
	tester := New(tictactoe.New())
	err := tester.Test(7, 2, nil, 1000)
	require.NoError(t, err)
}

func TestTesterSampleIsExhaustiveBelowSampleMax(t *testing.T) {
	tester := New(linearGame{})
	positions := tester.sample(1, 3, 10)
	assert.Equal(t, []gameapi.Position{0, 1, 2}, positions)
}

func TestTesterSampleIsDistinctAndInRangeAboveSampleMax(t *testing.T) {
	tester := New(linearGame{})
	positions := tester.sample(99, 1000, 50)
	require.Len(t, positions, 50)
	seen := make(map[gameapi.Position]bool, len(positions))
	for _, p := range positions {
		require.False(t, seen[p], "duplicate position %d", p)
		seen[p] = true
		require.True(t, p >= 0 && int64(p) < 1000)
	}
}
