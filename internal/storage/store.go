// Package storage provides the relational accessor used by the import engine.
//
// The engine never issues SQL itself. It talks to a [Store], which exposes a
// small generic CRUD surface over named tables:
//
//   - SelectAll: full-table fetch, used once per run to build the snapshot
//   - SelectIdentifiers: id column only, used for foreign-key validation
//   - FindByField: single natural-key lookup (alternate code -> record)
//   - Insert / UpdateByID: commit-mode writes
//
// [PostgresStore] is the production implementation backed by a pgx pool.
// [MemoryStore] keeps tables in process and is used by tests and tooling.
package storage

import (
	"context"
	"errors"
)

// Record is a stored row keyed by column name.
// Values are normalized to string, float64, bool, time.Time or nil.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IDColumn is the primary key column shared by every anagraphic table.
const IDColumn = "id"

// ErrNotFound is returned by UpdateByID when no row has the given id.
var ErrNotFound = errors.New("record not found")

// ErrUniqueViolation is returned (wrapped) when a write breaks a unique constraint.
var ErrUniqueViolation = errors.New("unique constraint violation")

// Store is the storage accessor consumed by the import engine.
type Store interface {
	// SelectAll returns every row of table.
	SelectAll(ctx context.Context, table string) ([]Record, error)

	// SelectIdentifiers returns the id column of every row of table.
	SelectIdentifiers(ctx context.Context, table string) ([]string, error)

	// FindByField returns the first row whose field equals value.
	// Returns nil, nil when no row matches.
	FindByField(ctx context.Context, table, field string, value any) (Record, error)

	// Insert writes a new row and returns its id.
	Insert(ctx context.Context, table string, rec Record) (string, error)

	// UpdateByID sets the given columns on the row identified by id.
	UpdateByID(ctx context.Context, table, id string, rec Record) error
}
