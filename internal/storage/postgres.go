package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgreSQL error codes surfaced to callers.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
)

// PostgresStore implements Store on top of a pgx connection pool.
// Table and column names are always quoted; values are always bound parameters.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store over the given pool or transaction.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// SelectAll returns every row of table.
func (s *PostgresStore) SelectAll(ctx context.Context, table string) ([]Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(table))

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// SelectIdentifiers returns the id column of every row of table.
func (s *PostgresStore) SelectIdentifiers(ctx context.Context, table string) ([]string, error) {
	query := fmt.Sprintf("SELECT %s::text FROM %s", quoteIdentifier(IDColumn), quoteIdentifier(table))

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select ids of %s: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ids, nil
}

// FindByField returns the first row whose field matches value.
// The comparison is trimmed and case-insensitive, as natural keys are typed by hand.
func (s *PostgresStore) FindByField(ctx context.Context, table, field string, value any) (Record, error) {
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE lower(btrim(%s::text)) = lower(btrim($1)) LIMIT 1",
		quoteIdentifier(table),
		quoteIdentifier(field),
	)

	rows, err := s.db.Query(ctx, query, fmt.Sprint(value))
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", table, field, err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Insert writes a new row and returns its id.
// A nil or absent id lets the column default generate one.
func (s *PostgresStore) Insert(ctx context.Context, table string, rec Record) (string, error) {
	var cols []string
	for _, col := range sortedColumns(rec) {
		if col == IDColumn && rec[col] == nil {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("insert into %s: no columns", table)
	}

	placeholders := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s::text",
		quoteIdentifier(table),
		strings.Join(quoteColumns(cols), ", "),
		strings.Join(placeholders, ", "),
		quoteIdentifier(IDColumn),
	)

	var id string
	if err := s.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert into %s: %w", table, wrapWriteError(err))
	}
	return id, nil
}

// UpdateByID sets the given columns on the row identified by id.
// The id column itself is never rewritten.
func (s *PostgresStore) UpdateByID(ctx context.Context, table, id string, rec Record) error {
	var cols []string
	for _, col := range sortedColumns(rec) {
		if col != IDColumn {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", quoteIdentifier(col), i+1)
		args = append(args, rec[col])
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		quoteIdentifier(table),
		strings.Join(sets, ", "),
		quoteIdentifier(IDColumn),
		len(cols)+1,
	)

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, wrapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s id %s: %w", table, id, ErrNotFound)
	}
	return nil
}

// collectRecords reads all rows into records keyed by column name.
func collectRecords(rows pgx.Rows) ([]Record, error) {
	fields := rows.FieldDescriptions()

	var records []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}

		rec := make(Record, len(fields))
		for i, fd := range fields {
			rec[fd.Name] = normalizeValue(values[i])
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// normalizeValue converts pgx native values to the plain Go types used by Record.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(val).String()
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val
	default:
		return val
	}
}

// wrapWriteError tags constraint violations so callers can classify them.
func wrapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s (%s)", ErrUniqueViolation, pgErr.Message, pgErr.ConstraintName)
	case pgForeignKeyViolation, pgNotNullViolation:
		return fmt.Errorf("%s (%s): %w", pgErr.Message, pgErr.ConstraintName, err)
	default:
		return err
	}
}

// sortedColumns returns the record's columns in a stable order.
func sortedColumns(rec Record) []string {
	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteColumns quotes each column name in the slice.
func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
	}
	return quoted
}
