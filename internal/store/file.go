package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists each table as one JSON array of records in a directory.
// It is the fallback backend used when no spreadsheet or database is
// configured.
type FileStore struct {
	dir string

	mu      sync.Mutex
	headers map[string][]string
}

// NewFileStore creates a file store rooted at dir, creating it if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{
		dir:     dir,
		headers: make(map[string][]string),
	}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// EnsureTable creates the table file if absent. An existing table whose
// rows no longer match the expected schema is reset to an empty table.
func (s *FileStore) EnsureTable(ctx context.Context, name string, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.headers[name] = append([]string(nil), headers...)

	rows, err := s.read(name)
	if os.IsNotExist(err) {
		return s.write(name, []Record{})
	}
	if err != nil {
		return err
	}

	if len(rows) > 0 && !sameHeaders(recordKeys(headers, rows[0]), headers) {
		// Schema drift: reset, matching the spreadsheet backend's behavior.
		return s.write(name, []Record{})
	}
	return nil
}

// ReadAll returns all rows of the table in insertion order
func (s *FileStore) ReadAll(ctx context.Context, name string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(name)
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	return rows, err
}

// Append writes one new row, filling missing fields with empty strings
func (s *FileStore) Append(ctx context.Context, name string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(name)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	headers := s.headers[name]
	if len(headers) == 0 {
		return fmt.Errorf("table %s has no schema; call EnsureTable first", name)
	}

	rows = append(rows, fill(headers, rec))
	return s.write(name, rows)
}

// UpdateByID merges updates into the row whose id column matches.
// Returns ErrRecordNotFound without touching the file when no row matches.
func (s *FileStore) UpdateByID(ctx context.Context, name, id string, updates Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(name)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrRecordNotFound
		}
		return err
	}

	idCol := "id"
	if headers := s.headers[name]; len(headers) > 0 {
		idCol = headers[0]
	}

	for i, row := range rows {
		if row[idCol] == id {
			rows[i] = merge(row, updates)
			return s.write(name, rows)
		}
	}
	return ErrRecordNotFound
}

func (s *FileStore) read(name string) ([]Record, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, err
	}

	var rows []Record
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", name, err)
	}
	return rows, nil
}

func (s *FileStore) write(name string, rows []Record) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", name, err)
	}

	// Write through a temp file so a crash never leaves a half-written table
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write table %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("failed to replace table %s: %w", name, err)
	}
	return nil
}

// recordKeys projects the record's key set onto the expected header order,
// appending any unexpected keys so schema drift is detected
func recordKeys(headers []string, rec Record) []string {
	keys := make([]string, 0, len(rec))
	for _, h := range headers {
		if _, ok := rec[h]; ok {
			keys = append(keys, h)
		}
	}
	for k := range rec {
		known := false
		for _, h := range headers {
			if k == h {
				known = true
				break
			}
		}
		if !known {
			keys = append(keys, k)
		}
	}
	return keys
}
