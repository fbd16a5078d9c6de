package tester

import (
	"fmt"

	"github.com/tiergraph/solver/gameapi"
)

// Kind enumerates the specific check a Tester failure belongs to, so a
// manager can tell a symmetry bug from a reciprocity bug without parsing
// strings.
type Kind int

const (
	TierSymmetrySelfMapping Kind = iota
	TierSymmetryInvolution
	ChildLegality
	ChildParentReciprocity
	ParentChildReciprocity
)

func (k Kind) String() string {
	switch k {
	case TierSymmetrySelfMapping:
		return "tier-symmetry-self-mapping"
	case TierSymmetryInvolution:
		return "tier-symmetry-involution"
	case ChildLegality:
		return "child-legality"
	case ChildParentReciprocity:
		return "child-parent-reciprocity"
	case ParentChildReciprocity:
		return "parent-child-reciprocity"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Failure reports the first position at which a check failed.
type Failure struct {
	Kind     Kind
	Position gameapi.TierPosition
	Detail   string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed at %v: %s", f.Kind, f.Position, f.Detail)
}
