package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"wattgrid/internal/identity/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists credentials. The unique index on lower(username)
// backs the atomic username-availability check.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfUsernameAvailable(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO credentials (id, username, password_hash, role, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var userID *uuid.UUID
	if !cred.UserID.IsNil() {
		uid := uuid.UUID(cred.UserID)
		userID = &uid
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(cred.ID), cred.Username, cred.PasswordHash, string(cred.Role), userID, cred.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CredentialID) (*models.Credential, error) {
	query := `
		SELECT id, username, password_hash, role, user_id, created_at
		FROM credentials WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.Credential, error) {
	query := `
		SELECT id, username, password_hash, role, user_id, created_at
		FROM credentials WHERE lower(username) = lower($1)
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, username))
}

func (s *PostgresStore) AssignUserID(ctx context.Context, id domain.CredentialID, userID domain.UserID) error {
	query := `UPDATE credentials SET user_id = $2 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(id), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("assign user id: %w", err)
	}
	return errIfNoRows(result)
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.CredentialID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return errIfNoRows(result)
}

func (s *PostgresStore) DeleteByUserID(ctx context.Context, userID domain.UserID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete credential by user: %w", err)
	}
	return errIfNoRows(result)
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Credential, error) {
	var (
		cred   models.Credential
		id     uuid.UUID
		role   string
		userID *uuid.UUID
	)
	err := row.Scan(&id, &cred.Username, &cred.PasswordHash, &role, &userID, &cred.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	cred.ID = domain.CredentialID(id)
	cred.Role = models.Role(role)
	if userID != nil {
		cred.UserID = domain.UserID(*userID)
	}
	return &cred, nil
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
