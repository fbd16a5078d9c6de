// Package tictactoe is a complete, minimal gameapi.GameApi implementation
// used by the solver's own tests and as a runnable example: a worked
// instance of every scenario in spec.md §8. The teacher corpus has no toy
// game of its own (macondo's GameApi-analogue is the full Scrabble engine),
// so this is new code, written in the plain-struct idiom gameapi itself
// uses.
//
// A board is nine cells, each Empty, markX, or markO, encoded as a base-3
// integer in [0, 3^9) and used directly as a Position; the tier is the
// number of filled cells, so every move strictly increases the tier and
// the game has no in-tier transitions at all (gameapi.Immediate). Only
// X-to-move tiers are even and only O-to-move tiers are odd, since X moves
// first.
package tictactoe

import "github.com/tiergraph/solver/gameapi"

type mark int

const (
	empty mark = 0
	markX mark = 1
	markO mark = 2
)

const numCells = 9

// boardStates is the size of the dense position space shared by every
// tier: 3^9. Most positions in any one tier are illegal (wrong cell count
// or unreachable mark balance); IsLegalPosition filters them.
const boardStates = 19683

// Game implements gameapi.GameApi, plus gameapi.CanonicalPositioner,
// gameapi.TierTypeClassifier and gameapi.TierNamer. It deliberately leaves every other optional
// callback unimplemented, so solving it also exercises the solver's
// fallback paths (reverse-graph construction, GenerateMoves+DoMove+
// GetCanonicalPosition for canonical children) per spec.md §8's
// "missing optional callback" scenario.
type Game struct{}

// New returns a ready-to-use Game.
func New() *Game { return &Game{} }

func decode(position gameapi.Position) [numCells]mark {
	var board [numCells]mark
	v := int64(position)
	for i := 0; i < numCells; i++ {
		board[i] = mark(v % 3)
		v /= 3
	}
	return board
}

func encode(board [numCells]mark) gameapi.Position {
	var v int64
	for i := numCells - 1; i >= 0; i-- {
		v = v*3 + int64(board[i])
	}
	return gameapi.Position(v)
}

func cellCounts(board [numCells]mark) (x, o int) {
	for _, c := range board {
		switch c {
		case markX:
			x++
		case markO:
			o++
		}
	}
	return x, o
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func winner(board [numCells]mark) mark {
	for _, line := range lines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != empty && a == b && b == c {
			return a
		}
	}
	return empty
}

func toMove(tier gameapi.Tier) mark {
	if tier%2 == 0 {
		return markX
	}
	return markO
}

func (g *Game) GetInitialTier() gameapi.Tier { return 0 }

func (g *Game) GetInitialPosition() gameapi.Position { return 0 }

func (g *Game) GetTierSize(tier gameapi.Tier) int64 {
	if tier < 0 || tier > numCells {
		return gameapi.IllegalSize
	}
	return boardStates
}

// GenerateMoves enumerates the empty cells as moves (a Move is an int cell
// index); DoMove places the mover's mark there.
func (g *Game) GenerateMoves(tp gameapi.TierPosition) []gameapi.Move {
	board := decode(tp.Position)
	moves := make([]gameapi.Move, 0, numCells)
	for i, c := range board {
		if c == empty {
			moves = append(moves, i)
		}
	}
	return moves
}

func (g *Game) DoMove(tp gameapi.TierPosition, m gameapi.Move) gameapi.TierPosition {
	board := decode(tp.Position)
	board[m.(int)] = toMove(tp.Tier)
	return gameapi.TierPosition{Tier: tp.Tier + 1, Position: encode(board)}
}

// Primitive returns Lose if the player to move is facing an
// already-completed three-in-a-row (the previous mover won), Tie if the
// board is full with no winner, and Undecided otherwise. Values are always
// from the perspective of the player to move at tp, per the convention the
// rest of the solver assumes.
func (g *Game) Primitive(tp gameapi.TierPosition) gameapi.Value {
	board := decode(tp.Position)
	if w := winner(board); w != empty {
		return gameapi.Lose
	}
	if tp.Tier >= numCells {
		return gameapi.Tie
	}
	return gameapi.Undecided
}

func (g *Game) IsLegalPosition(tp gameapi.TierPosition) bool {
	if tp.Tier < 0 || tp.Tier > numCells || int64(tp.Position) < 0 || int64(tp.Position) >= boardStates {
		return false
	}
	board := decode(tp.Position)
	x, o := cellCounts(board)
	if x+o != int(tp.Tier) {
		return false
	}
	if x != o && x != o+1 {
		return false
	}
	// A position past the move that already completed a line for the
	// player who is NOT to move next is legal (that's exactly a Lose
	// primitive); a position where the player TO move already has three
	// in a row is unreachable, since the game ends the instant a line
	// completes.
	if w := winner(board); w != empty && w == toMove(tp.Tier) {
		return false
	}
	return true
}

func (g *Game) GetChildTiers(tier gameapi.Tier) []gameapi.Tier {
	if tier < 0 || tier > numCells {
		return nil
	}
	if tier == numCells {
		return []gameapi.Tier{}
	}
	return []gameapi.Tier{tier + 1}
}

// GetTierType reports every tier as Immediate: moves only ever advance the
// cell count, so no tier has in-tier transitions at all.
func (g *Game) GetTierType(tier gameapi.Tier) gameapi.TierType {
	return gameapi.Immediate
}

// GetCanonicalPosition folds a board to the lexicographically smallest
// encoding among the 8 symmetries of the square (identity, 3 rotations, 4
// reflections), each of which preserves cell counts and therefore tier.
func (g *Game) GetCanonicalPosition(tp gameapi.TierPosition) gameapi.Position {
	board := decode(tp.Position)
	best := encode(board)
	current := board
	for i := 0; i < 3; i++ {
		current = rotate(current)
		if enc := encode(current); enc < best {
			best = enc
		}
	}
	flipped := reflect(board)
	if enc := encode(flipped); enc < best {
		best = enc
	}
	current = flipped
	for i := 0; i < 3; i++ {
		current = rotate(current)
		if enc := encode(current); enc < best {
			best = enc
		}
	}
	return best
}

// rotate turns the board 90 degrees clockwise: cell (r, c) -> (c, 2-r).
func rotate(board [numCells]mark) [numCells]mark {
	var out [numCells]mark
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[c*3+(2-r)] = board[r*3+c]
		}
	}
	return out
}

// reflect mirrors the board across its vertical axis: cell (r, c) -> (r, 2-c).
func reflect(board [numCells]mark) [numCells]mark {
	var out [numCells]mark
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+(2-c)] = board[r*3+c]
		}
	}
	return out
}

// GetTierName renders tier as a fixed-width decimal, for readable table
// names in a sqlitedb-backed solve.
func (g *Game) GetTierName(tier gameapi.Tier) string {
	return [10]string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}[tier]
}
