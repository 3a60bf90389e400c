package registry

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider looks up registrations from a sqlite database opened
// read-only, grounded on the pack's read-only SQLite data-access
// pattern (plane-watch-acars-parser/internal/storage/sqlite.go). The
// schema is expected to carry a `registrations` table with columns
// icao24, reg_number, manufacturer, type, call_sign, helicopter.
type SQLiteProvider struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewSQLiteProvider opens path in read-only mode and prepares the
// lookup statement once.
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open registration db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping registration db: %w", err)
	}

	stmt, err := db.Prepare(`SELECT reg_number, manufacturer, type, call_sign, helicopter
		FROM registrations WHERE icao24 = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare registration lookup: %w", err)
	}

	return &SQLiteProvider{db: db, stmt: stmt}, nil
}

// Lookup implements Provider.
func (p *SQLiteProvider) Lookup(icao24 string) (Registration, bool) {
	var reg Registration
	var helicopter int
	err := p.stmt.QueryRow(icao24).Scan(&reg.RegNumber, &reg.Manufacturer, &reg.Type, &reg.CallSign, &helicopter)
	if err != nil {
		return Registration{}, false
	}
	reg.ICAO24 = icao24
	reg.Helicopter = helicopter != 0
	return reg, true
}

// Close releases the prepared statement and database handle.
func (p *SQLiteProvider) Close() error {
	p.stmt.Close()
	return p.db.Close()
}
