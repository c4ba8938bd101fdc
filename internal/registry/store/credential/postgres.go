package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"proofgate/internal/registry/models"
	"proofgate/pkg/domain"
	"proofgate/pkg/platform/sentinel"
	"proofgate/pkg/platform/tx"
)

// PostgresStore persists credentials in PostgreSQL. Ids come from an
// identity column so they are strictly increasing and never reused; the
// UNIQUE (owner_address, topic) constraint is the O(1) duplicate check.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a credential store backed by the given database.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

// Insert records the credential and fills in the assigned id. Joins the
// ambient transaction when one is present, so a mint commits atomically with
// the events describing it.
func (s *PostgresStore) Insert(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO credentials (owner_address, topic, minted_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := s.q(ctx).QueryRowContext(ctx, query,
		cred.Owner.String(),
		cred.Topic.String(),
		cred.MintedAt,
	).Scan(&cred.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("credential for (%s, %s): %w", cred.Owner, cred.Topic, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// Get returns the credential with the given id.
func (s *PostgresStore) Get(ctx context.Context, id domain.CredentialID) (*models.Credential, error) {
	query := `
		SELECT id, owner_address, topic, minted_at
		FROM credentials
		WHERE id = $1
	`
	cred, err := scanCredential(s.q(ctx).QueryRowContext(ctx, query, uint64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credential %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select credential: %w", err)
	}
	return cred, nil
}

// SetOwner rewrites the owner of an existing credential.
func (s *PostgresStore) SetOwner(ctx context.Context, id domain.CredentialID, owner domain.Address) error {
	query := `UPDATE credentials SET owner_address = $1 WHERE id = $2`
	res, err := s.q(ctx).ExecContext(ctx, query, owner.String(), uint64(id))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("credential for (%s) already exists: %w", owner, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("update credential owner: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential owner: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("credential %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

// ByOwner lists the owner's credentials in mint order. Ids are assigned in
// mint order, so ordering by id is ordering by mint.
func (s *PostgresStore) ByOwner(ctx context.Context, owner domain.Address) ([]*models.Credential, error) {
	query := `
		SELECT id, owner_address, topic, minted_at
		FROM credentials
		WHERE owner_address = $1
		ORDER BY id
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("select credentials by owner: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Credential, 0)
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var (
		cred  models.Credential
		owner string
		topic string
	)
	if err := row.Scan(&cred.ID, &owner, &topic, &cred.MintedAt); err != nil {
		return nil, err
	}
	cred.Owner = domain.Address(owner)
	cred.Topic = domain.Topic(topic)
	return &cred, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
