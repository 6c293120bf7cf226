package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS tick_journal (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        sim_time INTEGER NOT NULL,
        assigned INTEGER,
        launched INTEGER,
        retired INTEGER,
        rejected INTEGER,
        pending INTEGER,
        active INTEGER,
        skipped INTEGER,
        error TEXT
    );
    CREATE INDEX IF NOT EXISTS tick_journal_time ON tick_journal(sim_time);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tick_journal (sim_time, assigned, launched, retired, rejected, pending, active, skipped, error)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Time, rec.Assigned, rec.Launched, rec.Retired, rec.Rejected, rec.Pending, rec.Active, rec.Skipped, rec.Error)
	return err
}

// Query returns records matching q ordered by time.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	query := `SELECT sim_time, assigned, launched, retired, rejected, pending, active, skipped, error
              FROM tick_journal WHERE sim_time >= ?`
	args := []any{q.From}
	if q.To > 0 {
		query += ` AND sim_time <= ?`
		args = append(args, q.To)
	}
	if q.ErrorsOnly {
		query += ` AND (error <> '' OR skipped = 1)`
	}
	query += ` ORDER BY sim_time, id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Time, &r.Assigned, &r.Launched, &r.Retired, &r.Rejected,
			&r.Pending, &r.Active, &r.Skipped, &r.Error); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
