package reversegraph

import (
	"sort"
	"testing"

	"github.com/matryer/is"

	"github.com/tiergraph/solver/gameapi"
)

func TestAddAndPopParentsOf(t *testing.T) {
	is := is.New(t)
	g := New([]gameapi.Tier{1})
	child := gameapi.TierPosition{Tier: 1, Position: 5}

	is.NoErr(g.Add(child, 10))
	is.NoErr(g.Add(child, 11))
	is.NoErr(g.Add(child, 12))

	parents := g.PopParentsOf(child)
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })
	is.Equal(parents, []gameapi.Position{10, 11, 12})
}

func TestPopParentsOfIsDestructive(t *testing.T) {
	is := is.New(t)
	g := New([]gameapi.Tier{1})
	child := gameapi.TierPosition{Tier: 1, Position: 5}
	is.NoErr(g.Add(child, 10))

	first := g.PopParentsOf(child)
	is.Equal(len(first), 1)

	second := g.PopParentsOf(child)
	is.Equal(len(second), 0)
}

func TestPopParentsOfUnknownChildReturnsEmpty(t *testing.T) {
	is := is.New(t)
	g := New([]gameapi.Tier{1})
	parents := g.PopParentsOf(gameapi.TierPosition{Tier: 1, Position: 999})
	is.Equal(len(parents), 0)
}

func TestDestroyClearsAllShards(t *testing.T) {
	is := is.New(t)
	g := New([]gameapi.Tier{1})
	child := gameapi.TierPosition{Tier: 1, Position: 5}
	is.NoErr(g.Add(child, 10))
	g.Destroy()
	parents := g.PopParentsOf(child)
	is.Equal(len(parents), 0)
}

func TestDistinctChildrenDoNotCollide(t *testing.T) {
	is := is.New(t)
	g := New([]gameapi.Tier{1, 2})
	a := gameapi.TierPosition{Tier: 1, Position: 1}
	b := gameapi.TierPosition{Tier: 2, Position: 1}
	is.NoErr(g.Add(a, 100))
	is.NoErr(g.Add(b, 200))

	is.Equal(g.PopParentsOf(a), []gameapi.Position{100})
	is.Equal(g.PopParentsOf(b), []gameapi.Position{200})
}
