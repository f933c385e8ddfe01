package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusgate/internal/identity"
	"campusgate/internal/profile"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

// PostgresStore persists profiles in the profiles table. UpsertMerge relies
// on COALESCE against the existing row so a partial patch never clobbers
// unrelated fields.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (profile.Profile, error) {
	query := `
		SELECT user_id, email, name, role, admin_verified,
		       admission_number, staff_id, last_login, updated_at
		FROM profiles WHERE user_id = $1
	`
	var p profile.Profile
	var role string
	var lastLogin sql.NullTime
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Email, &p.Name, &role, &p.AdminVerified,
		&p.AdmissionNumber, &p.StaffID, &lastLogin, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, sentinel.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.Role = identity.Role(role)
	if lastLogin.Valid {
		p.LastLogin = lastLogin.Time
	}
	return p, nil
}

func (s *PostgresStore) UpsertMerge(ctx context.Context, userID string, patch profile.Patch) error {
	query := `
		INSERT INTO profiles (user_id, email, name, role, admin_verified,
		                      admission_number, staff_id, updated_at)
		VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''),
		        COALESCE($5, FALSE), COALESCE($6, ''), COALESCE($7, ''), $8)
		ON CONFLICT (user_id) DO UPDATE SET
			email            = COALESCE($2, profiles.email),
			name             = COALESCE($3, profiles.name),
			role             = COALESCE($4, profiles.role),
			admin_verified   = COALESCE($5, profiles.admin_verified),
			admission_number = COALESCE($6, profiles.admission_number),
			staff_id         = COALESCE($7, profiles.staff_id),
			updated_at       = $8
	`
	var role *string
	if patch.Role != nil {
		r := string(*patch.Role)
		role = &r
	}
	_, err := s.db.ExecContext(ctx, query, userID,
		patch.Email, patch.Name, role, patch.AdminVerified,
		patch.AdmissionNumber, patch.StaffID, requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetAdminVerified(ctx context.Context, userID string, verified bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET admin_verified = $2, updated_at = now() WHERE user_id = $1`,
		userID, verified)
	if err != nil {
		return fmt.Errorf("set admin verified: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET last_login = $2 WHERE user_id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return requireRow(res)
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
