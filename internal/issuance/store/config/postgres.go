package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proofgate/pkg/domain"
	"proofgate/pkg/platform/sentinel"
	"proofgate/pkg/platform/tx"
)

// PostgresStore persists configuration fields as insert-only rows. The
// primary key on the field name makes the once-only transition atomic: the
// second writer's insert simply does not happen.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a configuration store backed by the given database.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

// SetOnce records the field value. ON CONFLICT DO NOTHING keeps the first
// write; zero affected rows means the field was already set.
func (s *PostgresStore) SetOnce(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO controller_config (field, value, set_by, set_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (field) DO NOTHING
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		entry.Field,
		entry.Value.String(),
		entry.SetBy.String(),
		entry.SetAt,
	)
	if err != nil {
		return fmt.Errorf("insert config field: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert config field: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("config field %q: %w", entry.Field, sentinel.ErrAlreadyUsed)
	}
	return nil
}

// Get returns the configured entry, or sentinel.ErrNotFound while unset.
func (s *PostgresStore) Get(ctx context.Context, field string) (Entry, error) {
	query := `SELECT field, value, set_by, set_at FROM controller_config WHERE field = $1`

	var (
		entry Entry
		value string
		setBy string
	)
	err := s.q(ctx).QueryRowContext(ctx, query, field).Scan(&entry.Field, &value, &setBy, &entry.SetAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("config field %q: %w", field, sentinel.ErrNotFound)
		}
		return Entry{}, fmt.Errorf("select config field: %w", err)
	}
	entry.Value = domain.Address(value)
	entry.SetBy = domain.Address(setBy)
	return entry, nil
}
