package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

const tableName = "results"

// SQLiteStore persists results in a SQLite database file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serializes writers anyway; one connection avoids "database is locked"
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.createTable(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// createTable creates the results table if it does not exist.
func (s *SQLiteStore) createTable() error {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS ` + tableName + ` (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		level INTEGER NOT NULL,
		time INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_level_time ON ` + tableName + ` (level, time);
	CREATE INDEX IF NOT EXISTS idx_results_user ON ` + tableName + ` (user_id);`

	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to execute CREATE TABLE: %w", err)
	}
	log.Debug("[RESULTS] results table ensured")
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, r *Result) error {
	if err := prepare(r); err != nil {
		return err
	}

	const insertSQL = `
	INSERT INTO ` + tableName + ` (id, user_id, username, level, time, created_at)
	VALUES (?, ?, ?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, insertSQL,
		r.ID, r.UserID, r.Username, r.Level, r.Time, r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert result for %s: %w", r.Username, err)
	}
	return nil
}

func (s *SQLiteStore) ByLevel(ctx context.Context, level int) ([]Result, error) {
	const selectSQL = `
	SELECT id, user_id, username, level, time, created_at
	FROM ` + tableName + `
	WHERE level = ?
	ORDER BY time ASC, created_at ASC;`

	return s.query(ctx, selectSQL, level)
}

func (s *SQLiteStore) ByUser(ctx context.Context, userID string) ([]Result, error) {
	const selectSQL = `
	SELECT id, user_id, username, level, time, created_at
	FROM ` + tableName + `
	WHERE user_id = ?
	ORDER BY created_at ASC;`

	return s.query(ctx, selectSQL, userID)
}

func (s *SQLiteStore) query(ctx context.Context, query string, arg any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	list := []Result{}
	for rows.Next() {
		var r Result
		var createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Username, &r.Level, &r.Time, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			log.WithError(err).WithField("id", r.ID).Warn("[RESULTS] unparseable created_at")
		}
		list = append(list, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return list, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
