package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campusgate/pkg/platform/sentinel"
)

// PostgresStore keeps codes in the verification_codes table. Consume runs the
// code update and the profile update in one transaction so the two writes
// cannot diverge.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, code Code) error {
	query := `
		INSERT INTO verification_codes (user_id, user_email, user_name, code,
		                                created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (user_id) DO UPDATE SET
			user_email = $2,
			user_name  = $3,
			code       = $4,
			created_at = $5,
			expires_at = $6,
			used       = FALSE
	`
	_, err := s.db.ExecContext(ctx, query,
		code.UserID, code.UserEmail, code.UserName, code.Code,
		code.CreatedAt, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("put verification code: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (Code, error) {
	query := `
		SELECT user_id, user_email, user_name, code, created_at, expires_at, used
		FROM verification_codes WHERE user_id = $1
	`
	var c Code
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&c.UserID, &c.UserEmail, &c.UserName, &c.Code,
		&c.CreatedAt, &c.ExpiresAt, &c.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return Code{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Code{}, fmt.Errorf("get verification code: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Consume(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin consume tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE verification_codes SET used = TRUE WHERE user_id = $1 AND used = FALSE`,
		userID)
	if err != nil {
		return fmt.Errorf("mark code used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a missing record from a concurrently consumed one.
		var used bool
		err := tx.QueryRowContext(ctx,
			`SELECT used FROM verification_codes WHERE user_id = $1`, userID).Scan(&used)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check code state: %w", err)
		}
		return sentinel.ErrAlreadyUsed
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE profiles SET admin_verified = TRUE, updated_at = now() WHERE user_id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("grant admin verification: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return sentinel.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit consume tx: %w", err)
	}
	return nil
}
