// Package dbapi defines the database collaborator a tier solver consumes.
// The on-disk layout and codec are entirely the collaborator's concern; the
// solver only ever probes, writes, and flushes through this interface.
package dbapi

import "github.com/tiergraph/solver/gameapi"

// TierStatus reports the persisted state of a tier's table.
type TierStatus int

const (
	StatusMissing TierStatus = iota
	StatusSolved
	StatusCorrupted
	StatusCheckError
)

// Probe is a per-thread handle for read-only access to an already-solved
// tier's table. One Probe must never be shared across goroutines; callers
// create one per worker.
type Probe interface {
	// Value returns the solved value at tp, or an error if the probe
	// failed (corrupted record, I/O error).
	Value(tp gameapi.TierPosition) (gameapi.Value, error)
	// Remoteness returns the solved remoteness at tp, or
	// gameapi.IllegalRemoteness on probe failure.
	Remoteness(tp gameapi.TierPosition) (gameapi.Remoteness, error)
	// Close releases resources held by the probe.
	Close() error
}

// DbApi is the persistence collaborator. A solver run against one tier
// calls CreateSolvingTier, writes through SetValue/SetRemoteness, and ends
// with FlushSolvingTier followed by FreeSolvingTier.
type DbApi interface {
	// NewProbe returns a fresh per-thread Probe over the named tier's
	// already-solved table.
	NewProbe(tier gameapi.Tier) (Probe, error)

	// TierStatus reports whether tier's table is ready to be probed.
	TierStatus(tier gameapi.Tier) TierStatus

	// CreateSolvingTier allocates an in-memory table of size records for
	// tier, to be filled in by SetValue/SetRemoteness during a solve.
	CreateSolvingTier(tier gameapi.Tier, size int64) error
	// SetValue writes the value for position in the tier currently being
	// solved. Concurrent calls with disjoint positions are safe.
	SetValue(position gameapi.Position, value gameapi.Value) error
	// SetRemoteness writes the remoteness for position in the tier
	// currently being solved. Concurrent calls with disjoint positions are
	// safe.
	SetRemoteness(position gameapi.Position, remoteness gameapi.Remoteness) error
	// GetValue reads back a value written earlier in the same solve (used
	// by the value-iteration algorithm, which re-reads its own tier).
	GetValue(position gameapi.Position) (gameapi.Value, error)
	// GetRemoteness reads back a remoteness written earlier in the same
	// solve.
	GetRemoteness(position gameapi.Position) (gameapi.Remoteness, error)
	// FlushSolvingTier materializes the in-memory table to durable
	// storage.
	FlushSolvingTier() error
	// FreeSolvingTier releases the in-memory table.
	FreeSolvingTier() error

	// LoadTier loads an already-solved tier entirely into memory, for use
	// by the value-iteration algorithm.
	LoadTier(tier gameapi.Tier, size int64) error
	// GetValueFromLoaded reads a value from a tier loaded via LoadTier.
	GetValueFromLoaded(tier gameapi.Tier, position gameapi.Position) (gameapi.Value, error)
	// GetRemotenessFromLoaded reads a remoteness from a tier loaded via
	// LoadTier.
	GetRemotenessFromLoaded(tier gameapi.Tier, position gameapi.Position) (gameapi.Remoteness, error)
	// UnloadTier releases a tier loaded via LoadTier.
	UnloadTier(tier gameapi.Tier) error
}

// ReferenceDbApi is an optional second database consulted in compare mode:
// a fresh solve is cross-checked position-by-position against it.
type ReferenceDbApi interface {
	NewProbe(tier gameapi.Tier) (Probe, error)
}
