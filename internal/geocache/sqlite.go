package geocache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/plazaview/property-geocode-service/internal/domain"
)

// SQLiteStore implements Persister on a local SQLite database. The
// geocode_cache table is the single fixed namespace holding the serialized
// cache; Save rewrites it wholesale inside one transaction.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_key       TEXT PRIMARY KEY,
	latitude          REAL NOT NULL,
	longitude         REAL NOT NULL,
	formatted_address TEXT NOT NULL DEFAULT ''
);
`

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache db pragma: %w", err)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads every cached entry. Rows were only ever written for successful
// resolutions, so OK is true on everything loaded.
func (s *SQLiteStore) Load() (map[string]domain.Result, error) {
	rows, err := s.db.Query(`SELECT address_key, latitude, longitude, formatted_address FROM geocode_cache`)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]domain.Result)
	for rows.Next() {
		var key string
		var r domain.Result
		if err := rows.Scan(&key, &r.Latitude, &r.Longitude, &r.FormattedAddress); err != nil {
			return nil, fmt.Errorf("scan cache row: %w", err)
		}
		r.OK = true
		entries[key] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	return entries, nil
}

// Save replaces the durable cache with the given snapshot.
func (s *SQLiteStore) Save(entries map[string]domain.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(`DELETE FROM geocode_cache`); err != nil {
		return fmt.Errorf("clear cache table: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO geocode_cache (address_key, latitude, longitude, formatted_address) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for key, r := range entries {
		if _, err := stmt.Exec(key, r.Latitude, r.Longitude, r.FormattedAddress); err != nil {
			return fmt.Errorf("insert cache entry %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
