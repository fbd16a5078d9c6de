// Package gameapi defines the external collaborator a tier solver consumes:
// a game-specific implementation of move generation, primitives, and tier
// topology. The solver never knows anything about a particular game beyond
// this interface.
package gameapi

import "fmt"

// Value is the game-theoretic value of a position.
type Value int

const (
	Undecided Value = iota
	Win
	Lose
	Tie
	Draw
)

func (v Value) String() string {
	switch v {
	case Undecided:
		return "undecided"
	case Win:
		return "win"
	case Lose:
		return "lose"
	case Tie:
		return "tie"
	case Draw:
		return "draw"
	default:
		return fmt.Sprintf("Value(%d)", int(v))
	}
}

// RemotenessMax is the largest remoteness a solved position may carry.
const RemotenessMax = 1023

// Remoteness counts plies to the nearest terminal under optimal play.
type Remoteness int

// IllegalRemoteness is returned by a probe on failure.
const IllegalRemoteness Remoteness = -1

// Tier is an opaque identifier of one layer of the game graph.
type Tier int64

// IllegalTier marks an uninitialized or erroneous tier.
const IllegalTier Tier = -1

// Position is a non-negative hash meaningful only within its tier.
type Position int64

// IllegalPosition marks an uninitialized or erroneous position.
const IllegalPosition Position = -1

// IllegalSize is returned by size/count queries that fail.
const IllegalSize = -1

// TierPosition is the global identity of a game state.
type TierPosition struct {
	Tier     Tier
	Position Position
}

func (tp TierPosition) String() string {
	return fmt.Sprintf("(%d, %d)", tp.Tier, tp.Position)
}

// TierType classifies a tier's internal transition structure.
type TierType int

const (
	// Loopy tiers may contain transitions among positions of the same tier
	// that form cycles; they require the frontier-based retrograde solver.
	Loopy TierType = iota
	// LoopFree tiers have no in-tier cycles and may be solved by value
	// iteration, holding every child tier in memory.
	LoopFree
	// Immediate tiers are a special case of LoopFree where all children lie
	// strictly in other tiers (no in-tier edges at all).
	Immediate
)

// Move is an opaque, game-specific move identifier threaded back through
// DoMove. The solver never inspects it.
type Move interface{}

// GameApi is the set of callbacks a game must supply. Required is the
// minimal interface; Optional unlocks the optimizations documented on each
// method.
type GameApi interface {
	// GetInitialTier returns the tier containing the starting position.
	GetInitialTier() Tier
	// GetInitialPosition returns the starting position within its tier.
	GetInitialPosition() Position
	// GetTierSize returns the number of positions in tier, or IllegalSize.
	GetTierSize(tier Tier) int64
	// GenerateMoves enumerates legal moves from tp.
	GenerateMoves(tp TierPosition) []Move
	// DoMove applies m to tp and returns the resulting position.
	DoMove(tp TierPosition, m Move) TierPosition
	// Primitive returns the intrinsic value of tp, or Undecided if tp is
	// not terminal.
	Primitive(tp TierPosition) Value
	// IsLegalPosition reports whether tp is reachable and well-formed.
	IsLegalPosition(tp TierPosition) bool
	// GetChildTiers returns the tiers directly reachable from tier, not
	// including tier itself. Returns nil on error.
	GetChildTiers(tier Tier) []Tier
}

// The optional callbacks are each their own single-method interface. A
// GameApi implementation unlocks an optimization by additionally
// implementing the corresponding interface; the solver discovers support
// with a type assertion and falls back per the table on each method when
// the assertion fails.

// CanonicalPositioner folds tp's symmetry class to its representative. If
// unimplemented, every position is its own canonical form.
type CanonicalPositioner interface {
	GetCanonicalPosition(tp TierPosition) Position
}

// CanonicalChildCounter counts canonical children without materializing
// them. If unimplemented, the solver falls back to GetCanonicalChildPositions
// (or its own fallback) and counts the result.
type CanonicalChildCounter interface {
	GetNumberOfCanonicalChildPositions(tp TierPosition) int
}

// CanonicalChildEnumerator enumerates canonical children directly. If
// unimplemented, the solver falls back to GenerateMoves + DoMove +
// GetCanonicalPosition.
type CanonicalChildEnumerator interface {
	GetCanonicalChildPositions(tp TierPosition) []TierPosition
}

// CanonicalParentEnumerator returns every canonical position in parentTier
// with a canonical child equal to child. If unimplemented, the solver
// builds a reverse graph by forward enumeration during the scan phase.
type CanonicalParentEnumerator interface {
	GetCanonicalParentPositions(child TierPosition, parentTier Tier) []Position
}

// TierSymmetryMapper maps tp into symmTier under tier symmetry. If
// unimplemented, tier-symmetry folding is disabled and every tier is
// treated as canonical.
type TierSymmetryMapper interface {
	GetPositionInSymmetricTier(tp TierPosition, symmTier Tier) Position
}

// CanonicalTierMapper returns the canonical representative of tier's
// symmetry class. If unimplemented, every tier is its own canonical form.
type CanonicalTierMapper interface {
	GetCanonicalTier(tier Tier) Tier
}

// TierTypeClassifier classifies tier. If unimplemented, every tier is
// treated as Loopy.
type TierTypeClassifier interface {
	GetTierType(tier Tier) TierType
}

// TierNamer renders tier as a human-readable string for database file
// naming. If unimplemented, tiers are named by their numeric identifier.
type TierNamer interface {
	GetTierName(tier Tier) string
}
