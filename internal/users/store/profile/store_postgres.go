package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"wattgrid/internal/users/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists profiles. A unique index on lower(username) backs
// the atomic availability check.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfUsernameAvailable(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (id, credentials_id, username, email, full_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.ID), uuid.UUID(profile.CredentialsID), profile.Username,
		profile.Email, profile.FullName, profile.Role, profile.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*models.UserProfile, error) {
	query := `
		SELECT id, credentials_id, username, email, full_name, role, created_at
		FROM user_profiles WHERE id = $1
	`
	return scanProfile(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) FindByCredentialsID(ctx context.Context, credID domain.CredentialID) (*models.UserProfile, error) {
	query := `
		SELECT id, credentials_id, username, email, full_name, role, created_at
		FROM user_profiles WHERE credentials_id = $1
	`
	return scanProfile(s.db.QueryRowContext(ctx, query, uuid.UUID(credID)))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.UserProfile, error) {
	query := `
		SELECT id, credentials_id, username, email, full_name, role, created_at
		FROM user_profiles ORDER BY username
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.UserProfile
	for rows.Next() {
		var (
			p      models.UserProfile
			id     uuid.UUID
			credID uuid.UUID
		)
		if err := rows.Scan(&id, &credID, &p.Username, &p.Email, &p.FullName, &p.Role, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.ID = domain.UserID(id)
		p.CredentialsID = domain.CredentialID(credID)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, profile *models.UserProfile) error {
	query := `
		UPDATE user_profiles SET email = $2, full_name = $3, role = $4
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.ID), profile.Email, profile.FullName, profile.Role)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return errIfNoRows(result)
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.UserID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_profiles WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return errIfNoRows(result)
}

func scanProfile(row *sql.Row) (*models.UserProfile, error) {
	var (
		p      models.UserProfile
		id     uuid.UUID
		credID uuid.UUID
	)
	err := row.Scan(&id, &credID, &p.Username, &p.Email, &p.FullName, &p.Role, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.ID = domain.UserID(id)
	p.CredentialsID = domain.CredentialID(credID)
	return &p, nil
}

func errIfNoRows(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
