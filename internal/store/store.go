package store

import (
	"context"
	"errors"
)

var (
	// ErrRecordNotFound is returned by UpdateByID when no row matches the id.
	// Callers must check for it rather than assume the update succeeded.
	ErrRecordNotFound = errors.New("record not found")
)

// Record is one row of a table, keyed by header name. Values are plain
// strings; no type coercion happens at this layer.
type Record map[string]string

// Store is a minimal CRUD abstraction over named tables with fixed header
// schemas. Implementations: Google Sheets, Postgres, local JSON files.
// The backend is selected once at startup and does not change mid-session.
//
// No locking is provided: concurrent writers racing on UpdateByID may lose
// updates (last-write-wins at the row level). This is an accepted limitation
// of the spreadsheet backend and is reproduced by all implementations.
type Store interface {
	// EnsureTable idempotently creates the table if absent. If the table
	// exists but its header row differs from the expected schema, the table
	// is reset to the expected schema. The reset is destructive; there is
	// no migration path.
	EnsureTable(ctx context.Context, name string, headers []string) error

	// ReadAll returns all rows of the table in insertion order.
	ReadAll(ctx context.Context, name string) ([]Record, error)

	// Append writes one new row. Fields missing from the record are written
	// as empty strings.
	Append(ctx context.Context, name string, rec Record) error

	// UpdateByID merges updates into the row whose first column equals id,
	// preserving existing values for fields not present in updates. Returns
	// ErrRecordNotFound and leaves the table unchanged when no row matches.
	UpdateByID(ctx context.Context, name, id string, updates Record) error
}

// merge returns a copy of base with the fields of updates applied on top
func merge(base, updates Record) Record {
	out := make(Record, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// fill returns a copy of rec restricted to headers, with missing fields
// written as empty strings
func fill(headers []string, rec Record) Record {
	out := make(Record, len(headers))
	for _, h := range headers {
		out[h] = rec[h]
	}
	return out
}

// sameHeaders reports whether two header rows match exactly, order included
func sameHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
