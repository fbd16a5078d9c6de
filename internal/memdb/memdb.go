// Package memdb implements dbapi.DbApi entirely in memory, for unit tests
// and small example games where durability does not matter.
package memdb

import (
	"fmt"
	"sync"

	"github.com/tiergraph/solver/dbapi"
	"github.com/tiergraph/solver/gameapi"
)

type record struct {
	value      gameapi.Value
	remoteness gameapi.Remoteness
}

// DB is a concurrency-safe, in-memory DbApi. One DB instance can serve as
// both the primary and, wrapped a second time, the reference database for
// compare-mode tests.
type DB struct {
	mu      sync.RWMutex
	solved  map[gameapi.Tier][]record
	loaded  map[gameapi.Tier][]record
	current gameapi.Tier
	table   []record
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		solved: make(map[gameapi.Tier][]record),
		loaded: make(map[gameapi.Tier][]record),
	}
}

func (d *DB) NewProbe(tier gameapi.Tier) (dbapi.Probe, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	table, ok := d.solved[tier]
	if !ok {
		return nil, fmt.Errorf("memdb: tier %d is not solved", tier)
	}
	return &probe{db: d, tier: tier, table: table}, nil
}

func (d *DB) TierStatus(tier gameapi.Tier) dbapi.TierStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.solved[tier]; ok {
		return dbapi.StatusSolved
	}
	return dbapi.StatusMissing
}

func (d *DB) CreateSolvingTier(tier gameapi.Tier, size int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = tier
	d.table = make([]record, size)
	return nil
}

func (d *DB) SetValue(position gameapi.Position, value gameapi.Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int64(position) < 0 || int64(position) >= int64(len(d.table)) {
		return fmt.Errorf("memdb: position %d out of range", position)
	}
	d.table[position].value = value
	return nil
}

func (d *DB) SetRemoteness(position gameapi.Position, remoteness gameapi.Remoteness) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int64(position) < 0 || int64(position) >= int64(len(d.table)) {
		return fmt.Errorf("memdb: position %d out of range", position)
	}
	d.table[position].remoteness = remoteness
	return nil
}

func (d *DB) GetValue(position gameapi.Position) (gameapi.Value, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int64(position) < 0 || int64(position) >= int64(len(d.table)) {
		return gameapi.Undecided, fmt.Errorf("memdb: position %d out of range", position)
	}
	return d.table[position].value, nil
}

func (d *DB) GetRemoteness(position gameapi.Position) (gameapi.Remoteness, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int64(position) < 0 || int64(position) >= int64(len(d.table)) {
		return gameapi.IllegalRemoteness, fmt.Errorf("memdb: position %d out of range", position)
	}
	return d.table[position].remoteness, nil
}

func (d *DB) FlushSolvingTier() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.solved[d.current] = d.table
	return nil
}

func (d *DB) FreeSolvingTier() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table = nil
	return nil
}

func (d *DB) LoadTier(tier gameapi.Tier, size int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	table, ok := d.solved[tier]
	if !ok {
		return fmt.Errorf("memdb: tier %d is not solved", tier)
	}
	d.loaded[tier] = table
	return nil
}

func (d *DB) GetValueFromLoaded(tier gameapi.Tier, position gameapi.Position) (gameapi.Value, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	table, ok := d.loaded[tier]
	if !ok || int64(position) < 0 || int64(position) >= int64(len(table)) {
		return gameapi.Undecided, fmt.Errorf("memdb: tier %d position %d not loaded", tier, position)
	}
	return table[position].value, nil
}

func (d *DB) GetRemotenessFromLoaded(tier gameapi.Tier, position gameapi.Position) (gameapi.Remoteness, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	table, ok := d.loaded[tier]
	if !ok || int64(position) < 0 || int64(position) >= int64(len(table)) {
		return gameapi.IllegalRemoteness, fmt.Errorf("memdb: tier %d position %d not loaded", tier, position)
	}
	return table[position].remoteness, nil
}

func (d *DB) UnloadTier(tier gameapi.Tier) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.loaded, tier)
	return nil
}

type probe struct {
	db    *DB
	tier  gameapi.Tier
	table []record
}

func (p *probe) Value(tp gameapi.TierPosition) (gameapi.Value, error) {
	if int64(tp.Position) < 0 || int64(tp.Position) >= int64(len(p.table)) {
		return gameapi.Undecided, fmt.Errorf("memdb: probe position %d out of range", tp.Position)
	}
	return p.table[tp.Position].value, nil
}

func (p *probe) Remoteness(tp gameapi.TierPosition) (gameapi.Remoteness, error) {
	if int64(tp.Position) < 0 || int64(tp.Position) >= int64(len(p.table)) {
		return gameapi.IllegalRemoteness, fmt.Errorf("memdb: probe position %d out of range", tp.Position)
	}
	return p.table[tp.Position].remoteness, nil
}

func (p *probe) Close() error { return nil }
