package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// MatchRow represents a recorded match
type MatchRow struct {
	ID        string
	TickRate  int
	StartedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	// foreign_keys is per connection, so it goes in the DSN for every pooled conn
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		tick_rate INTEGER NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS projectile_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL REFERENCES matches(id),
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		projectile_id INTEGER NOT NULL DEFAULT 0,
		weapon INTEGER NOT NULL,
		owner INTEGER NOT NULL,
		target INTEGER NOT NULL DEFAULT -1,
		x REAL NOT NULL,
		y REAL NOT NULL,
		team INTEGER NOT NULL DEFAULT -1,
		victims INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_events_match ON projectile_events(match_id, tick);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreateMatch records the start of a match
func (db *DB) CreateMatch(id string, tickRate int) error {
	_, err := db.conn.Exec(
		"INSERT INTO matches (id, tick_rate) VALUES (?, ?)",
		id, tickRate,
	)
	return err
}

// GetMatch returns a match by ID, nil if absent
func (db *DB) GetMatch(id string) (*MatchRow, error) {
	row := db.conn.QueryRow("SELECT id, tick_rate, started_at FROM matches WHERE id = ?", id)
	m := &MatchRow{}
	err := row.Scan(&m.ID, &m.TickRate, &m.StartedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// InsertEvents stores a batch of world events in one transaction
func (db *DB) InsertEvents(matchID string, events []WorldEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO projectile_events
		(match_id, tick, type, projectile_id, weapon, owner, target, x, y, team, victims)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(matchID, e.Tick, e.Type, e.ProjectileID, int(e.Weapon), e.Owner,
			e.Target, e.Pos.X, e.Pos.Y, e.Team, len(e.Victims)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s event: %w", e.Type, err)
		}
	}
	return tx.Commit()
}

// EventCounts returns the number of recorded events per type for a match
func (db *DB) EventCounts(matchID string) (map[string]int, error) {
	rows, err := db.conn.Query(
		"SELECT type, COUNT(*) FROM projectile_events WHERE match_id = ? GROUP BY type",
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

// ExplosionVictims returns the total number of characters caught in a match's explosions
func (db *DB) ExplosionVictims(matchID string) (int, error) {
	var n sql.NullInt64
	err := db.conn.QueryRow(
		"SELECT SUM(victims) FROM projectile_events WHERE match_id = ? AND type = ?",
		matchID, EvtExplosion,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}
