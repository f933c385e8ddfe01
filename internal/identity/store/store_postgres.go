package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"campusgate/pkg/platform/sentinel"
)

// PostgresCredentialStore persists accounts in the credentials table.
type PostgresCredentialStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresCredentialStore {
	return &PostgresCredentialStore{db: db}
}

func (s *PostgresCredentialStore) Create(ctx context.Context, cred Credential) error {
	query := `
		INSERT INTO credentials (user_id, email, name, password_hash, email_verified, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		cred.UserID, cred.Email, cred.Name, cred.PasswordHash, cred.EmailVerified, cred.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (s *PostgresCredentialStore) FindByEmail(ctx context.Context, email string) (Credential, error) {
	query := `
		SELECT user_id, email, name, password_hash, email_verified, created_at
		FROM credentials WHERE email = lower($1)
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresCredentialStore) FindByID(ctx context.Context, userID string) (Credential, error) {
	query := `
		SELECT user_id, email, name, password_hash, email_verified, created_at
		FROM credentials WHERE user_id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, userID))
}

func (s *PostgresCredentialStore) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET email_verified = $2 WHERE user_id = $1`, userID, verified)
	if err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresCredentialStore) SetPasswordHash(ctx context.Context, userID string, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET password_hash = $2 WHERE user_id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresCredentialStore) scanOne(row *sql.Row) (Credential, error) {
	var cred Credential
	err := row.Scan(&cred.UserID, &cred.Email, &cred.Name, &cred.PasswordHash, &cred.EmailVerified, &cred.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Credential{}, fmt.Errorf("scan credential: %w", err)
	}
	return cred, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
