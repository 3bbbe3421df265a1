package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"

	"bilimbagdar/internal/config"
)

var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PostgresStore keeps each table as rows of a jsonb column, preserving the
// string-typed record semantics of the spreadsheet backend. Header schemas
// live in a meta table so the destructive reset rule can be applied.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a Postgres-backed store
func NewPostgresStore(cfg *config.DatabaseConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection, used by tests
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the underlying connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureTable creates the backing table and registers its header schema.
// A schema mismatch truncates the table, mirroring the spreadsheet reset.
func (s *PostgresStore) EnsureTable(ctx context.Context, name string, headers []string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS record_schemas (
			table_name TEXT PRIMARY KEY,
			headers    JSONB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			seq    BIGSERIAL PRIMARY KEY,
			id     TEXT NOT NULL,
			fields JSONB NOT NULL
		)
	`, name))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	var storedJSON []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT headers FROM record_schemas WHERE table_name = $1`, name,
	).Scan(&storedJSON)

	headersJSON, merr := json.Marshal(headers)
	if merr != nil {
		return fmt.Errorf("failed to encode headers: %w", merr)
	}

	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO record_schemas (table_name, headers) VALUES ($1, $2)`,
			name, headersJSON)
		if err != nil {
			return fmt.Errorf("failed to register schema for %s: %w", name, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read schema for %s: %w", name, err)
	}

	var stored []string
	if err := json.Unmarshal(storedJSON, &stored); err != nil {
		return fmt.Errorf("failed to decode schema for %s: %w", name, err)
	}
	if sameHeaders(stored, headers) {
		return nil
	}

	// Destructive reset on schema drift, same rule as the sheet backend
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`TRUNCATE %q`, name)); err != nil {
		return fmt.Errorf("failed to reset table %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE record_schemas SET headers = $2 WHERE table_name = $1`,
		name, headersJSON)
	if err != nil {
		return fmt.Errorf("failed to update schema for %s: %w", name, err)
	}
	return nil
}

// ReadAll returns all rows in insertion order
func (s *PostgresStore) ReadAll(ctx context.Context, name string) ([]Record, error) {
	if !tableNameRe.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT fields FROM %q ORDER BY seq`, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		records = append(records, rec)
	}
	if records == nil {
		records = []Record{}
	}
	return records, rows.Err()
}

// Append writes one new row, filling missing fields with empty strings
func (s *PostgresStore) Append(ctx context.Context, name string, rec Record) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}

	headers, err := s.headers(ctx, name)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return fmt.Errorf("table %s has no schema; call EnsureTable first", name)
	}

	full := fill(headers, rec)
	data, err := json.Marshal(full)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %q (id, fields) VALUES ($1, $2)`, name),
		full[headers[0]], data)
	if err != nil {
		return fmt.Errorf("failed to append to table %s: %w", name, err)
	}
	return nil
}

// UpdateByID merges updates into the matching row via jsonb concatenation.
// Returns ErrRecordNotFound when no row has the id.
func (s *PostgresStore) UpdateByID(ctx context.Context, name, id string, updates Record) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}

	data, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("failed to encode updates: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %q SET fields = fields || $2::jsonb WHERE id = $1`, name),
		id, data)
	if err != nil {
		return fmt.Errorf("failed to update table %s: %w", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *PostgresStore) headers(ctx context.Context, name string) ([]string, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT headers FROM record_schemas WHERE table_name = $1`, name,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema for %s: %w", name, err)
	}

	var headers []string
	if err := json.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("failed to decode schema for %s: %w", name, err)
	}
	return headers, nil
}
