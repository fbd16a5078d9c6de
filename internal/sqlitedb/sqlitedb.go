// Package sqlitedb implements dbapi.DbApi and dbapi.ReferenceDbApi on top
// of modernc.org/sqlite, for durable solves and for compare-mode reference
// databases. Each tier is one table, named the way a TierNamer would if the
// caller's GameApi supplies one, else by its numeric identifier.
package sqlitedb

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/tiergraph/solver/dbapi"
	"github.com/tiergraph/solver/gameapi"
)

// DB wraps one sqlite database file (or ":memory:") holding one table per
// solved tier.
type DB struct {
	sqlDB *sql.DB
	namer func(gameapi.Tier) string

	mu        sync.Mutex
	current   gameapi.Tier
	staging   map[int64]record
	stageSize int64
}

type record struct {
	value      gameapi.Value
	remoteness gameapi.Remoteness
}

// Open opens (creating if necessary) a sqlite database at path. namer, if
// non-nil, names tables after gameapi.TierNamer.GetTierName; pass nil to
// name tables by the tier's numeric identifier.
func Open(path string, namer func(gameapi.Tier) string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: open %s: %w", path, err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("sqlitedb: pragma setup: %w", err)
	}
	if namer == nil {
		namer = func(tier gameapi.Tier) string { return fmt.Sprintf("%d", int64(tier)) }
	}
	return &DB{sqlDB: sqlDB, namer: namer}, nil
}

func (d *DB) Close() error {
	return d.sqlDB.Close()
}

func (d *DB) tableName(tier gameapi.Tier) string {
	return "tier_" + d.namer(tier)
}

func (d *DB) NewProbe(tier gameapi.Tier) (dbapi.Probe, error) {
	table := d.tableName(tier)
	var exists int
	err := d.sqlDB.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: checking table %s: %w", table, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("sqlitedb: tier %d is not solved", tier)
	}
	valueStmt, err := d.sqlDB.Prepare(fmt.Sprintf("SELECT value FROM %s WHERE position = ?", table))
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: preparing value probe for tier %d: %w", tier, err)
	}
	remotenessStmt, err := d.sqlDB.Prepare(fmt.Sprintf("SELECT remoteness FROM %s WHERE position = ?", table))
	if err != nil {
		valueStmt.Close()
		return nil, fmt.Errorf("sqlitedb: preparing remoteness probe for tier %d: %w", tier, err)
	}
	return &probe{valueStmt: valueStmt, remotenessStmt: remotenessStmt}, nil
}

func (d *DB) TierStatus(tier gameapi.Tier) dbapi.TierStatus {
	var exists int
	err := d.sqlDB.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", d.tableName(tier),
	).Scan(&exists)
	if err != nil {
		return dbapi.StatusCheckError
	}
	if exists == 0 {
		return dbapi.StatusMissing
	}
	return dbapi.StatusSolved
}

func (d *DB) CreateSolvingTier(tier gameapi.Tier, size int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = tier
	d.stageSize = size
	d.staging = make(map[int64]record, size)
	return nil
}

func (d *DB) SetValue(position gameapi.Position, value gameapi.Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.staging[int64(position)]
	r.value = value
	d.staging[int64(position)] = r
	return nil
}

func (d *DB) SetRemoteness(position gameapi.Position, remoteness gameapi.Remoteness) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.staging[int64(position)]
	r.remoteness = remoteness
	d.staging[int64(position)] = r
	return nil
}

func (d *DB) GetValue(position gameapi.Position) (gameapi.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.staging[int64(position)].value, nil
}

func (d *DB) GetRemoteness(position gameapi.Position) (gameapi.Remoteness, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.staging[int64(position)].remoteness, nil
}

// FlushSolvingTier materializes the staged table in one transaction, the
// batched-insert idiom sqlite driver documentation recommends over one
// statement per row.
func (d *DB) FlushSolvingTier() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	table := d.tableName(d.current)
	if _, err := d.sqlDB.Exec(fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (position INTEGER PRIMARY KEY, value INTEGER NOT NULL, remoteness INTEGER NOT NULL)", table)); err != nil {
		return fmt.Errorf("sqlitedb: creating table %s: %w", table, err)
	}

	tx, err := d.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("sqlitedb: begin flush: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT OR REPLACE INTO %s (position, value, remoteness) VALUES (?, ?, ?)", table))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlitedb: preparing insert for tier %d: %w", d.current, err)
	}
	for pos, r := range d.staging {
		if _, err := stmt.Exec(pos, int(r.value), int(r.remoteness)); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("sqlitedb: inserting position %d: %w", pos, err)
		}
	}
	stmt.Close()
	return tx.Commit()
}

func (d *DB) FreeSolvingTier() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.staging = nil
	return nil
}

func (d *DB) LoadTier(tier gameapi.Tier, size int64) error {
	// Loaded tiers are read straight through NewProbe-equivalent queries in
	// GetValueFromLoaded/GetRemotenessFromLoaded; nothing to stage here
	// since sqlite already serves point lookups cheaply.
	return nil
}

func (d *DB) GetValueFromLoaded(tier gameapi.Tier, position gameapi.Position) (gameapi.Value, error) {
	var value int
	err := d.sqlDB.QueryRow(
		fmt.Sprintf("SELECT value FROM %s WHERE position = ?", d.tableName(tier)), int64(position),
	).Scan(&value)
	if err != nil {
		return gameapi.Undecided, fmt.Errorf("sqlitedb: reading tier %d position %d: %w", tier, position, err)
	}
	return gameapi.Value(value), nil
}

func (d *DB) GetRemotenessFromLoaded(tier gameapi.Tier, position gameapi.Position) (gameapi.Remoteness, error) {
	var remoteness int
	err := d.sqlDB.QueryRow(
		fmt.Sprintf("SELECT remoteness FROM %s WHERE position = ?", d.tableName(tier)), int64(position),
	).Scan(&remoteness)
	if err != nil {
		return gameapi.IllegalRemoteness, fmt.Errorf("sqlitedb: reading tier %d position %d: %w", tier, position, err)
	}
	return gameapi.Remoteness(remoteness), nil
}

func (d *DB) UnloadTier(tier gameapi.Tier) error {
	return nil
}

type probe struct {
	valueStmt      *sql.Stmt
	remotenessStmt *sql.Stmt
}

func (p *probe) Value(tp gameapi.TierPosition) (gameapi.Value, error) {
	var value int
	if err := p.valueStmt.QueryRow(int64(tp.Position)).Scan(&value); err != nil {
		return gameapi.Undecided, fmt.Errorf("sqlitedb: probe value at %v: %w", tp, err)
	}
	return gameapi.Value(value), nil
}

func (p *probe) Remoteness(tp gameapi.TierPosition) (gameapi.Remoteness, error) {
	var remoteness int
	if err := p.remotenessStmt.QueryRow(int64(tp.Position)).Scan(&remoteness); err != nil {
		return gameapi.IllegalRemoteness, fmt.Errorf("sqlitedb: probe remoteness at %v: %w", tp, err)
	}
	return gameapi.Remoteness(remoteness), nil
}

func (p *probe) Close() error {
	p.valueStmt.Close()
	return p.remotenessStmt.Close()
}
