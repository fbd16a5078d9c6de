package tiersolver

import (
	"testing"

	"github.com/matryer/is"

	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/testhelpers"
)

// minimalAPI implements only the required gameapi.GameApi methods, so
// every optional capability is expected to be absent.
type minimalAPI struct{}

func (minimalAPI) GetInitialTier() gameapi.Tier         { return 0 }
func (minimalAPI) GetInitialPosition() gameapi.Position { return 0 }
func (minimalAPI) GetTierSize(gameapi.Tier) int64        { return 4 }
func (minimalAPI) GenerateMoves(tp gameapi.TierPosition) []gameapi.Move {
	if tp.Position >= 2 {
		return nil
	}
	return []gameapi.Move{tp.Position + 1}
}
func (minimalAPI) DoMove(tp gameapi.TierPosition, m gameapi.Move) gameapi.TierPosition {
	return gameapi.TierPosition{Tier: tp.Tier, Position: m.(gameapi.Position)}
}
func (minimalAPI) Primitive(tp gameapi.TierPosition) gameapi.Value {
	if tp.Position >= 2 {
		return gameapi.Lose
	}
	return gameapi.Undecided
}
func (minimalAPI) IsLegalPosition(gameapi.TierPosition) bool { return true }
func (minimalAPI) GetChildTiers(gameapi.Tier) []gameapi.Tier { return []gameapi.Tier{} }

func TestResolverFallsBackWithoutOptionalCapabilities(t *testing.T) {
	is := is.New(t)
	r := newResolver(minimalAPI{}, testhelpers.DefaultSolverConfig)

	is.True(!r.hasParentEnumerator())
	tp := gameapi.TierPosition{Tier: 0, Position: 0}
	is.Equal(r.canonicalPosition(tp), tp.Position)
	is.True(r.isCanonicalPosition(tp))
	is.Equal(r.canonicalTier(tp.Tier), tp.Tier)
	is.True(r.isCanonicalTier(tp.Tier))
	is.Equal(r.tierType(tp.Tier), gameapi.Loopy)
	is.Equal(r.tierName(tp.Tier), "0")

	children, err := r.canonicalChildren(tp)
	is.NoErr(err)
	is.Equal(children, []gameapi.TierPosition{{Tier: 0, Position: 1}})

	n, err := r.numCanonicalChildren(tp)
	is.NoErr(err)
	is.Equal(n, 1)
}

// fullAPI implements every optional capability with simple, checkable
// behavior distinct from the fallback, so tests can tell whether the
// resolver actually used the capability instead of falling back.
type fullAPI struct {
	minimalAPI
}

func (fullAPI) GetCanonicalPosition(tp gameapi.TierPosition) gameapi.Position {
	return 0
}
func (fullAPI) GetNumberOfCanonicalChildPositions(tp gameapi.TierPosition) int {
	return 99
}
func (fullAPI) GetCanonicalChildPositions(tp gameapi.TierPosition) []gameapi.TierPosition {
	return []gameapi.TierPosition{{Tier: tp.Tier, Position: 42}}
}
func (fullAPI) GetCanonicalParentPositions(child gameapi.TierPosition, parentTier gameapi.Tier) []gameapi.Position {
	return []gameapi.Position{7}
}
func (fullAPI) GetPositionInSymmetricTier(tp gameapi.TierPosition, symmTier gameapi.Tier) gameapi.Position {
	return tp.Position + 1
}
func (fullAPI) GetCanonicalTier(tier gameapi.Tier) gameapi.Tier {
	return tier + 100
}
func (fullAPI) GetTierType(gameapi.Tier) gameapi.TierType {
	return gameapi.Immediate
}
func (fullAPI) GetTierName(tier gameapi.Tier) string {
	return "custom"
}

func TestResolverUsesOptionalCapabilitiesWhenPresent(t *testing.T) {
	is := is.New(t)
	r := newResolver(fullAPI{}, testhelpers.DefaultSolverConfig)
	tp := gameapi.TierPosition{Tier: 0, Position: 0}

	is.True(r.hasParentEnumerator())
	is.Equal(r.canonicalPosition(gameapi.TierPosition{Tier: 0, Position: 3}), gameapi.Position(0))
	is.Equal(r.canonicalTier(5), gameapi.Tier(105))
	is.Equal(r.tierType(tp.Tier), gameapi.Immediate)
	is.Equal(r.tierName(tp.Tier), "custom")
	is.Equal(r.positionInSymmetricTier(tp, 1), gameapi.Position(1))

	children, err := r.canonicalChildren(tp)
	is.NoErr(err)
	is.Equal(children, []gameapi.TierPosition{{Tier: 0, Position: 42}})

	n, err := r.numCanonicalChildren(tp)
	is.NoErr(err)
	is.Equal(n, 99)

	parents, ok := r.canonicalParents(tp, 1)
	is.True(ok)
	is.Equal(parents, []gameapi.Position{7})
}
