// Package tester implements the black-box property checker described by
// the core solver's self-test mode: given a tier and a reproducible seed,
// it samples positions and checks tier-symmetry and canonical
// child/parent reciprocity without ever consulting a solved database.
package tester

import (
	"fmt"

	"github.com/tiergraph/solver/gameapi"
)

// Tester discovers the same optional GameApi capabilities the core solver
// does, via type assertion, and applies the same documented fallback when a
// capability is absent — kept as its own small resolver rather than sharing
// tiersolver's, since the tester never touches counters, frontiers, or a
// database.
type Tester struct {
	api gameapi.GameApi

	canonicalPositioner gameapi.CanonicalPositioner
	childEnumerator     gameapi.CanonicalChildEnumerator
	parentEnumerator    gameapi.CanonicalParentEnumerator
	tierSymmetry        gameapi.TierSymmetryMapper
	tierCanon           gameapi.CanonicalTierMapper
}

// New builds a Tester bound to api.
func New(api gameapi.GameApi) *Tester {
	t := &Tester{api: api}
	t.canonicalPositioner, _ = api.(gameapi.CanonicalPositioner)
	t.childEnumerator, _ = api.(gameapi.CanonicalChildEnumerator)
	t.parentEnumerator, _ = api.(gameapi.CanonicalParentEnumerator)
	t.tierSymmetry, _ = api.(gameapi.TierSymmetryMapper)
	t.tierCanon, _ = api.(gameapi.CanonicalTierMapper)
	return t
}

func (t *Tester) canonicalPosition(tp gameapi.TierPosition) gameapi.Position {
	if t.canonicalPositioner == nil {
		return tp.Position
	}
	return t.canonicalPositioner.GetCanonicalPosition(tp)
}

func (t *Tester) canonicalTier(tier gameapi.Tier) gameapi.Tier {
	if t.tierCanon == nil {
		return tier
	}
	return t.tierCanon.GetCanonicalTier(tier)
}

func (t *Tester) positionInSymmetricTier(tp gameapi.TierPosition, symmTier gameapi.Tier) gameapi.Position {
	if t.tierSymmetry == nil {
		return tp.Position
	}
	return t.tierSymmetry.GetPositionInSymmetricTier(tp, symmTier)
}

func (t *Tester) canonicalChildren(tp gameapi.TierPosition) ([]gameapi.TierPosition, error) {
	if t.childEnumerator != nil {
		children := t.childEnumerator.GetCanonicalChildPositions(tp)
		if children == nil {
			return nil, fmt.Errorf("GetCanonicalChildPositions returned nil for %v", tp)
		}
		return children, nil
	}
	moves := t.api.GenerateMoves(tp)
	children := make([]gameapi.TierPosition, 0, len(moves))
	seen := make(map[gameapi.TierPosition]bool, len(moves))
	for _, m := range moves {
		child := t.api.DoMove(tp, m)
		child.Position = t.canonicalPosition(child)
		if seen[child] {
			continue
		}
		seen[child] = true
		children = append(children, child)
	}
	return children, nil
}

// Test samples up to sampleMax positions from tier — or every position, if
// size(tier) <= sampleMax — using a Mersenne-Twister stream seeded by seed,
// and runs the five checks of §4.5 against each sampled legal, non-primitive
// position. It returns the first Failure encountered, or nil if every
// sampled position passed every applicable check.
func (t *Tester) Test(seed uint64, tier gameapi.Tier, parentTiers []gameapi.Tier, sampleMax int64) error {
	size := t.api.GetTierSize(tier)
	if size == gameapi.IllegalSize {
		return fmt.Errorf("GetTierSize(%d) failed", tier)
	}

	positions := t.sample(seed, size, sampleMax)
	for _, pos := range positions {
		tp := gameapi.TierPosition{Tier: tier, Position: pos}
		if !t.api.IsLegalPosition(tp) {
			continue
		}
		if t.api.Primitive(tp) != gameapi.Undecided {
			continue
		}
		if err := t.checkOne(tp, parentTiers); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tester) sample(seed uint64, size, sampleMax int64) []gameapi.Position {
	if size <= sampleMax {
		positions := make([]gameapi.Position, size)
		for i := int64(0); i < size; i++ {
			positions[i] = gameapi.Position(i)
		}
		return positions
	}

	rng := newMT19937_64(seed)
	seen := make(map[int64]bool, sampleMax)
	positions := make([]gameapi.Position, 0, sampleMax)
	for int64(len(positions)) < sampleMax {
		p := rng.intn(size)
		if seen[p] {
			continue
		}
		seen[p] = true
		positions = append(positions, gameapi.Position(p))
	}
	return positions
}

func (t *Tester) checkOne(tp gameapi.TierPosition, parentTiers []gameapi.Tier) error {
	imageTP, err := t.checkTierSymmetrySelfMapping(tp)
	if err != nil {
		return err
	}
	if err := t.checkTierSymmetryInvolution(tp, imageTP); err != nil {
		return err
	}

	children, err := t.canonicalChildren(tp)
	if err != nil {
		return &Failure{Kind: ChildLegality, Position: tp, Detail: err.Error()}
	}
	if err := t.checkChildLegality(tp, children); err != nil {
		return err
	}
	if t.parentEnumerator != nil {
		if err := t.checkChildParentReciprocity(tp, children); err != nil {
			return err
		}
		if err := t.checkParentChildReciprocity(tp, parentTiers); err != nil {
			return err
		}
	}
	return nil
}

// checkTierSymmetrySelfMapping verifies check 1: the position maps to
// itself under its own tier's symmetry, and so does its image in the
// canonical tier.
func (t *Tester) checkTierSymmetrySelfMapping(tp gameapi.TierPosition) (gameapi.TierPosition, error) {
	selfMap := t.positionInSymmetricTier(tp, tp.Tier)
	if selfMap != tp.Position {
		return gameapi.TierPosition{}, &Failure{Kind: TierSymmetrySelfMapping, Position: tp,
			Detail: fmt.Sprintf("GetPositionInSymmetricTier(p, tier(p)) = %d, want %d", selfMap, tp.Position)}
	}

	canonTier := t.canonicalTier(tp.Tier)
	image := t.positionInSymmetricTier(tp, canonTier)
	imageTP := gameapi.TierPosition{Tier: canonTier, Position: image}
	imageSelfMap := t.positionInSymmetricTier(imageTP, canonTier)
	if imageSelfMap != image {
		return gameapi.TierPosition{}, &Failure{Kind: TierSymmetrySelfMapping, Position: tp,
			Detail: fmt.Sprintf("image %v does not self-map under its own tier", imageTP)}
	}
	return imageTP, nil
}

// checkTierSymmetryInvolution verifies check 2: mapping there and back
// restores the original position.
func (t *Tester) checkTierSymmetryInvolution(tp, imageTP gameapi.TierPosition) error {
	back := t.positionInSymmetricTier(imageTP, tp.Tier)
	if back != tp.Position {
		return &Failure{Kind: TierSymmetryInvolution, Position: tp,
			Detail: fmt.Sprintf("round trip through %v produced %d, want %d", imageTP, back, tp.Position)}
	}
	return nil
}

// checkChildLegality verifies check 3: every canonical child is in range
// and legal.
func (t *Tester) checkChildLegality(tp gameapi.TierPosition, children []gameapi.TierPosition) error {
	for _, child := range children {
		size := t.api.GetTierSize(child.Tier)
		if size == gameapi.IllegalSize || child.Position < 0 || int64(child.Position) >= size {
			return &Failure{Kind: ChildLegality, Position: tp,
				Detail: fmt.Sprintf("child %v out of range [0, %d)", child, size)}
		}
		if !t.api.IsLegalPosition(child) {
			return &Failure{Kind: ChildLegality, Position: tp,
				Detail: fmt.Sprintf("child %v is not legal", child)}
		}
	}
	return nil
}

// checkChildParentReciprocity verifies check 4: every canonical child
// reports tp's canonical form among its canonical parents in tp's tier.
func (t *Tester) checkChildParentReciprocity(tp gameapi.TierPosition, children []gameapi.TierPosition) error {
	canon := t.canonicalPosition(tp)
	for _, child := range children {
		parents := t.parentEnumerator.GetCanonicalParentPositions(child, tp.Tier)
		if !containsPosition(parents, canon) {
			return &Failure{Kind: ChildParentReciprocity, Position: tp,
				Detail: fmt.Sprintf("canonical parent %d missing from GetCanonicalParentPositions(%v, %d)", canon, child, tp.Tier)}
		}
	}
	return nil
}

// checkParentChildReciprocity verifies check 5: for every legal,
// non-primitive canonical parent in every declared parent tier, tp's
// canonical form appears among that parent's canonical children.
func (t *Tester) checkParentChildReciprocity(tp gameapi.TierPosition, parentTiers []gameapi.Tier) error {
	canon := t.canonicalPosition(tp)
	for _, parentTier := range parentTiers {
		parents := t.parentEnumerator.GetCanonicalParentPositions(gameapi.TierPosition{Tier: tp.Tier, Position: canon}, parentTier)
		for _, q := range parents {
			qtp := gameapi.TierPosition{Tier: parentTier, Position: q}
			if !t.api.IsLegalPosition(qtp) || t.api.Primitive(qtp) != gameapi.Undecided {
				continue
			}
			qChildren, err := t.canonicalChildren(qtp)
			if err != nil {
				return &Failure{Kind: ParentChildReciprocity, Position: tp, Detail: err.Error()}
			}
			if !containsTierPosition(qChildren, gameapi.TierPosition{Tier: tp.Tier, Position: canon}) {
				return &Failure{Kind: ParentChildReciprocity, Position: tp,
					Detail: fmt.Sprintf("canonical form missing from GetCanonicalChildPositions(%v)", qtp)}
			}
		}
	}
	return nil
}

func containsPosition(ps []gameapi.Position, p gameapi.Position) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

func containsTierPosition(tps []gameapi.TierPosition, tp gameapi.TierPosition) bool {
	for _, x := range tps {
		if x == tp {
			return true
		}
	}
	return false
}
