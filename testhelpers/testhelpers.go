// Package testhelpers provides the shared test fixtures used across this
// module's package tests, the way the teacher's testhelpers package
// exposed one shared Config/TileMapping pair for every test that needed to
// parse a game record. Here the equivalent fixture is a tiny GameApi/DbApi
// pair every package test can solve against without repeating the wiring.
package testhelpers

import (
	"github.com/tiergraph/solver/config"
	"github.com/tiergraph/solver/internal/memdb"
	"github.com/tiergraph/solver/internal/tictactoe"
)

// DefaultSolverConfig is a SolverConfig tuned for fast, deterministic unit
// tests: a small fixed thread count rather than runtime.NumCPU(), and the
// memory-budget check disabled since test fixtures are tiny by
// construction.
var DefaultSolverConfig = &config.SolverConfig{
	Threads:          2,
	DbChunkSize:      64,
	RemotenessMax:    1023,
	MemoryFraction:   0,
	TestSampleMax:    1000,
	DistributedSleep: 0,
}

// NewTicTacToe returns a fresh tic-tac-toe GameApi and an empty in-memory
// DbApi, ready to be passed to tiersolver.New.
func NewTicTacToe() (*tictactoe.Game, *memdb.DB) {
	return tictactoe.New(), memdb.New()
}
