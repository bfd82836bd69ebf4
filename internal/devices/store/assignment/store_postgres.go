package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"wattgrid/internal/devices/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

// PostgresStore persists assignments. A unique index on device_id backs the
// one-assignment-per-device invariant; Replace runs delete+insert in one
// transaction.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed assignment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Replace(ctx context.Context, a *models.Assignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM device_assignments WHERE device_id = $1`, uuid.UUID(a.DeviceID)); err != nil {
		return fmt.Errorf("clear prior assignment: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO device_assignments (id, device_id, user_id, assigned_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(a.ID), uuid.UUID(a.DeviceID), uuid.UUID(a.UserID), a.AssignedAt); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) FindByDeviceID(ctx context.Context, deviceID domain.DeviceID) (*models.Assignment, error) {
	query := `
		SELECT id, device_id, user_id, assigned_at
		FROM device_assignments WHERE device_id = $1
	`
	var (
		a            models.Assignment
		id, dID, uID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(deviceID)).
		Scan(&id, &dID, &uID, &a.AssignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan assignment: %w", err)
	}
	a.ID = domain.AssignmentID(id)
	a.DeviceID = domain.DeviceID(dID)
	a.UserID = domain.UserID(uID)
	return &a, nil
}

func (s *PostgresStore) ListByUserID(ctx context.Context, userID domain.UserID) ([]*models.Assignment, error) {
	query := `
		SELECT id, device_id, user_id, assigned_at
		FROM device_assignments WHERE user_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		var (
			a            models.Assignment
			id, dID, uID uuid.UUID
		)
		if err := rows.Scan(&id, &dID, &uID, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.ID = domain.AssignmentID(id)
		a.DeviceID = domain.DeviceID(dID)
		a.UserID = domain.UserID(uID)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteByDeviceID(ctx context.Context, deviceID domain.DeviceID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM device_assignments WHERE device_id = $1`, uuid.UUID(deviceID)); err != nil {
		return fmt.Errorf("delete assignments by device: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByUserID(ctx context.Context, userID domain.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM device_assignments WHERE user_id = $1`, uuid.UUID(userID)); err != nil {
		return fmt.Errorf("delete assignments by user: %w", err)
	}
	return nil
}
