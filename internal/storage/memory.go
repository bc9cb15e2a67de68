package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store.
// It mirrors the behavior the engine relies on from PostgreSQL: generated ids,
// unique constraints over column tuples, and trimmed case-insensitive lookups.
type MemoryStore struct {
	mu      sync.RWMutex
	tables  map[string][]Record
	uniques map[string][][]string
	writes  int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:  make(map[string][]Record),
		uniques: make(map[string][][]string),
	}
}

// AddUnique declares a unique constraint over cols on table.
// Rows where any of the columns is nil or blank are not constrained, like SQL NULLs.
func (m *MemoryStore) AddUnique(table string, cols ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uniques[table] = append(m.uniques[table], cols)
}

// Seed appends rows without constraint checks. Rows lacking an id get one.
func (m *MemoryStore) Seed(table string, recs ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		row := rec.Clone()
		if row[IDColumn] == nil {
			row[IDColumn] = uuid.NewString()
		}
		m.tables[table] = append(m.tables[table], row)
	}
}

// Rows returns a copy of every row in table.
func (m *MemoryStore) Rows(table string) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.tables[table]))
	for i, rec := range m.tables[table] {
		out[i] = rec.Clone()
	}
	return out
}

// Writes returns the number of successful inserts and updates performed.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// SelectAll returns every row of table.
func (m *MemoryStore) SelectAll(ctx context.Context, table string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Rows(table), nil
}

// SelectIdentifiers returns the id column of every row of table.
func (m *MemoryStore) SelectIdentifiers(ctx context.Context, table string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.tables[table]))
	for _, rec := range m.tables[table] {
		ids = append(ids, fmt.Sprint(rec[IDColumn]))
	}
	return ids, nil
}

// FindByField returns the first row whose field matches value, or nil.
func (m *MemoryStore) FindByField(ctx context.Context, table, field string, value any) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	want := matchValue(value)
	for _, rec := range m.tables[table] {
		if rec[field] != nil && matchValue(rec[field]) == want {
			return rec.Clone(), nil
		}
	}
	return nil, nil
}

// Insert writes a new row and returns its id.
func (m *MemoryStore) Insert(ctx context.Context, table string, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row := rec.Clone()
	if row[IDColumn] == nil {
		row[IDColumn] = uuid.NewString()
	}

	if err := m.checkUnique(table, row, -1); err != nil {
		return "", fmt.Errorf("insert into %s: %w", table, err)
	}

	m.tables[table] = append(m.tables[table], row)
	m.writes++
	return fmt.Sprint(row[IDColumn]), nil
}

// UpdateByID merges rec into the row identified by id.
func (m *MemoryStore) UpdateByID(ctx context.Context, table, id string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.tables[table] {
		if !strings.EqualFold(fmt.Sprint(existing[IDColumn]), id) {
			continue
		}

		merged := existing.Clone()
		for col, v := range rec {
			if col != IDColumn {
				merged[col] = v
			}
		}

		if err := m.checkUnique(table, merged, i); err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}

		m.tables[table][i] = merged
		m.writes++
		return nil
	}

	return fmt.Errorf("update %s id %s: %w", table, id, ErrNotFound)
}

// checkUnique reports a violation if row collides with any other row (skipping index skip).
// Caller must hold the write lock.
func (m *MemoryStore) checkUnique(table string, row Record, skip int) error {
	for _, cols := range m.uniques[table] {
		key, ok := tupleKey(row, cols)
		if !ok {
			continue
		}
		for i, other := range m.tables[table] {
			if i == skip {
				continue
			}
			if otherKey, ok := tupleKey(other, cols); ok && otherKey == key {
				return fmt.Errorf("%w: duplicate key value for (%s)", ErrUniqueViolation, strings.Join(cols, ", "))
			}
		}
	}
	return nil
}

// tupleKey builds the comparison key of cols on row; false if any column is blank.
func tupleKey(row Record, cols []string) (string, bool) {
	parts := make([]string, len(cols))
	for i, col := range cols {
		v := row[col]
		if v == nil {
			return "", false
		}
		s := matchValue(v)
		if s == "" {
			return "", false
		}
		parts[i] = s
	}
	return strings.Join(parts, "\x1f"), true
}

// matchValue renders a value the way FindByField compares it.
func matchValue(v any) string {
	return strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
}
