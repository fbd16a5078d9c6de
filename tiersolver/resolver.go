package tiersolver

import (
	"fmt"

	"github.com/tiergraph/solver/cache"
	"github.com/tiergraph/solver/config"
	"github.com/tiergraph/solver/gameapi"
)

// resolver discovers which optional GameApi capabilities tp's underlying
// implementation supports, once, and exposes a uniform set of methods that
// apply the documented fallback when a capability is absent. It replaces
// the module-scoped "current_api" collaborator of the original solver with
// an explicit object passed by reference into every phase.
//
// Per-tier metadata that costs a GameApi call but never changes for a given
// tier (its type, its canonical representative) is memoized through the
// cache package rather than re-derived on every lookup; newResolver resets
// the cache so one resolver's entries never leak into another's.
type resolver struct {
	api gameapi.GameApi
	cfg *config.SolverConfig

	canonicalPositioner gameapi.CanonicalPositioner
	childCounter        gameapi.CanonicalChildCounter
	childEnumerator     gameapi.CanonicalChildEnumerator
	parentEnumerator    gameapi.CanonicalParentEnumerator
	tierSymmetry        gameapi.TierSymmetryMapper
	tierCanon           gameapi.CanonicalTierMapper
	tierTypeClassifier  gameapi.TierTypeClassifier
	tierNamer           gameapi.TierNamer
}

func newResolver(api gameapi.GameApi, cfg *config.SolverConfig) *resolver {
	cache.CreateGlobalObjectCache()
	r := &resolver{api: api, cfg: cfg}
	r.canonicalPositioner, _ = api.(gameapi.CanonicalPositioner)
	r.childCounter, _ = api.(gameapi.CanonicalChildCounter)
	r.childEnumerator, _ = api.(gameapi.CanonicalChildEnumerator)
	r.parentEnumerator, _ = api.(gameapi.CanonicalParentEnumerator)
	r.tierSymmetry, _ = api.(gameapi.TierSymmetryMapper)
	r.tierCanon, _ = api.(gameapi.CanonicalTierMapper)
	r.tierTypeClassifier, _ = api.(gameapi.TierTypeClassifier)
	r.tierNamer, _ = api.(gameapi.TierNamer)
	return r
}

// hasParentEnumerator reports whether the game supplies
// GetCanonicalParentPositions; when false, the solver must build a
// ReverseGraph instead.
func (r *resolver) hasParentEnumerator() bool {
	return r.parentEnumerator != nil
}

func (r *resolver) canonicalPosition(tp gameapi.TierPosition) gameapi.Position {
	if r.canonicalPositioner == nil {
		return tp.Position
	}
	return r.canonicalPositioner.GetCanonicalPosition(tp)
}

func (r *resolver) isCanonicalPosition(tp gameapi.TierPosition) bool {
	return r.canonicalPosition(tp) == tp.Position
}

// canonicalChildren enumerates tp's canonical children, falling back to
// GenerateMoves + DoMove + GetCanonicalPosition when the game does not
// supply GetCanonicalChildPositions directly.
func (r *resolver) canonicalChildren(tp gameapi.TierPosition) ([]gameapi.TierPosition, error) {
	if r.childEnumerator != nil {
		children := r.childEnumerator.GetCanonicalChildPositions(tp)
		if children == nil {
			return nil, fmt.Errorf("GetCanonicalChildPositions returned nil for %v", tp)
		}
		return children, nil
	}

	moves := r.api.GenerateMoves(tp)
	children := make([]gameapi.TierPosition, 0, len(moves))
	seen := make(map[gameapi.TierPosition]bool, len(moves))
	for _, m := range moves {
		child := r.api.DoMove(tp, m)
		child.Position = r.canonicalPosition(child)
		if seen[child] {
			continue
		}
		seen[child] = true
		children = append(children, child)
	}
	return children, nil
}

// numCanonicalChildren counts tp's canonical children, using
// GetNumberOfCanonicalChildPositions when available to avoid materializing
// the slice.
func (r *resolver) numCanonicalChildren(tp gameapi.TierPosition) (int, error) {
	if r.childCounter != nil {
		n := r.childCounter.GetNumberOfCanonicalChildPositions(tp)
		if n < 0 {
			return 0, fmt.Errorf("GetNumberOfCanonicalChildPositions returned %d for %v", n, tp)
		}
		return n, nil
	}
	children, err := r.canonicalChildren(tp)
	if err != nil {
		return 0, err
	}
	return len(children), nil
}

// canonicalParents returns parents and ok=true if the game supplies
// GetCanonicalParentPositions; ok=false signals the caller must consult a
// ReverseGraph instead.
func (r *resolver) canonicalParents(child gameapi.TierPosition, parentTier gameapi.Tier) ([]gameapi.Position, bool) {
	if r.parentEnumerator == nil {
		return nil, false
	}
	return r.parentEnumerator.GetCanonicalParentPositions(child, parentTier), true
}

func (r *resolver) positionInSymmetricTier(tp gameapi.TierPosition, symmTier gameapi.Tier) gameapi.Position {
	if r.tierSymmetry == nil {
		return tp.Position
	}
	return r.tierSymmetry.GetPositionInSymmetricTier(tp, symmTier)
}

func (r *resolver) canonicalTier(tier gameapi.Tier) gameapi.Tier {
	if r.tierCanon == nil {
		return tier
	}
	obj, err := cache.Load(r.cfg, fmt.Sprintf("canonicalTier:%d", tier),
		func(_ *config.SolverConfig, _ string) (interface{}, error) {
			return r.tierCanon.GetCanonicalTier(tier), nil
		})
	if err != nil {
		return tier
	}
	return obj.(gameapi.Tier)
}

func (r *resolver) isCanonicalTier(tier gameapi.Tier) bool {
	return r.canonicalTier(tier) == tier
}

func (r *resolver) tierType(tier gameapi.Tier) gameapi.TierType {
	if r.tierTypeClassifier == nil {
		return gameapi.Loopy
	}
	obj, err := cache.Load(r.cfg, fmt.Sprintf("tierType:%d", tier),
		func(_ *config.SolverConfig, _ string) (interface{}, error) {
			return r.tierTypeClassifier.GetTierType(tier), nil
		})
	if err != nil {
		return gameapi.Loopy
	}
	return obj.(gameapi.TierType)
}

func (r *resolver) tierName(tier gameapi.Tier) string {
	if r.tierNamer == nil {
		return fmt.Sprintf("%d", tier)
	}
	return r.tierNamer.GetTierName(tier)
}
