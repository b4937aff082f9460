// Package gamedb persists one game-state row per calendar day in sqlite.
// Saves within the same day overwrite that day's row, so the table stays
// small and the newest row is always the current day's latest state.
package gamedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DayKey formats a timestamp as the "MM/DD/YYYY" row key.
func DayKey(t time.Time) string {
	return t.Format("01/02/2006")
}

type Store struct {
	db *sql.DB

	ch   chan dayRow
	wg   sync.WaitGroup
	once sync.Once
}

type dayRow struct {
	DateKey string
	Tick    uint64
	Blob    []byte
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		ch: make(chan dayRow, 16),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS game_days (
		date_key TEXT PRIMARY KEY,
		tick INTEGER NOT NULL,
		saved_at TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		blob BLOB NOT NULL
	);`)
	return err
}

func (s *Store) loop() {
	for row := range s.ch {
		if err := s.upsert(row); err != nil {
			// The next interval save retries with fresher state anyway.
			fmt.Fprintf(os.Stderr, "gamedb: save %s failed: %v\n", row.DateKey, err)
		}
	}
}

func (s *Store) upsert(row dayRow) error {
	_, err := s.db.Exec(`INSERT INTO game_days (date_key, tick, saved_at, bytes, blob)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date_key) DO UPDATE SET
			tick=excluded.tick,
			saved_at=excluded.saved_at,
			bytes=excluded.bytes,
			blob=excluded.blob;`,
		row.DateKey, int64(row.Tick), time.Now().UTC().Format(time.RFC3339), len(row.Blob), row.Blob)
	return err
}

// SaveDay queues an upsert of the day's row. Non-blocking: if the writer
// is backed up the save is dropped in favor of the next one.
func (s *Store) SaveDay(dateKey string, tick uint64, blob []byte) {
	select {
	case s.ch <- dayRow{DateKey: dateKey, Tick: tick, Blob: blob}:
	default:
	}
}

// SaveDaySync writes the day's row on the calling goroutine. Used at
// shutdown, when the queued path must not drop.
func (s *Store) SaveDaySync(dateKey string, tick uint64, blob []byte) error {
	return s.upsert(dayRow{DateKey: dateKey, Tick: tick, Blob: blob})
}

// LoadDay returns the blob for a day key, or ok=false when absent.
func (s *Store) LoadDay(dateKey string) (blob []byte, tick uint64, ok bool, err error) {
	var t int64
	row := s.db.QueryRow(`SELECT tick, blob FROM game_days WHERE date_key = ?;`, dateKey)
	if err := row.Scan(&t, &blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	return blob, uint64(t), true, nil
}

// LoadResume implements the boot order: today's row, else yesterday's,
// else nothing (caller starts fresh).
func (s *Store) LoadResume(now time.Time) (blob []byte, dateKey string, ok bool, err error) {
	for _, day := range []string{DayKey(now), DayKey(now.AddDate(0, 0, -1))} {
		b, _, found, err := s.LoadDay(day)
		if err != nil {
			return nil, "", false, err
		}
		if found {
			return b, day, true, nil
		}
	}
	return nil, "", false, nil
}

// Close drains pending saves and closes the database.
func (s *Store) Close() error {
	s.once.Do(func() { close(s.ch) })
	s.wg.Wait()
	return s.db.Close()
}
