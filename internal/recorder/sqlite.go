package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"MarketLens/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists bar snapshots to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the API can read while the scheduled refresh writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			symbol      TEXT NOT NULL,
			interval    TEXT NOT NULL,
			period      TEXT,
			recorded_at INTEGER NOT NULL,
			bar_count   INTEGER,
			PRIMARY KEY (symbol, interval)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_recorded ON snapshots(recorded_at)`,

		`CREATE TABLE IF NOT EXISTS bars (
			symbol   TEXT NOT NULL,
			interval TEXT NOT NULL,
			ts       INTEGER NOT NULL,
			open     REAL,
			high     REAL,
			low      REAL,
			close    REAL,
			volume   REAL,
			PRIMARY KEY (symbol, interval, ts)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bars WHERE symbol = ? AND interval = ?`,
		snap.Symbol, snap.Interval); err != nil {
		return fmt.Errorf("clear bars: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO bars
		(symbol, interval, ts, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range snap.Bars {
		if _, err := stmt.Exec(snap.Symbol, snap.Interval, b.Time.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("insert bar: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO snapshots
		(symbol, interval, period, recorded_at, bar_count)
		VALUES (?,?,?,?,?)`,
		snap.Symbol, snap.Interval, snap.Period, snap.RecordedAt.UnixNano(), len(snap.Bars),
	); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LatestSnapshot() (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &Snapshot{}
	var recorded int64
	err := r.db.QueryRow(`SELECT symbol, interval, COALESCE(period, ''), recorded_at
		FROM snapshots ORDER BY recorded_at DESC LIMIT 1`).
		Scan(&snap.Symbol, &snap.Interval, &snap.Period, &recorded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	snap.RecordedAt = time.Unix(0, recorded)

	rows, err := r.db.Query(`SELECT ts, open, high, low, close, volume
		FROM bars WHERE symbol = ? AND interval = ? ORDER BY ts`,
		snap.Symbol, snap.Interval)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts int64
		var b model.OHLCV
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = time.Unix(ts, 0)
		snap.Bars = append(snap.Bars, b)
	}
	return snap, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
