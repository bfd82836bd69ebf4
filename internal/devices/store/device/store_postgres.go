package device

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

// PostgresStore persists devices.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed device store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, d *models.Device) error {
	query := `
		INSERT INTO devices (id, name, description, max_consumption, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(d.ID), d.Name, d.Description, d.MaxConsumption, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DeviceID) (*models.Device, error) {
	query := `
		SELECT id, name, description, max_consumption, created_at
		FROM devices WHERE id = $1
	`
	var (
		d   models.Device
		did uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(id)).
		Scan(&did, &d.Name, &d.Description, &d.MaxConsumption, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan device: %w", err)
	}
	d.ID = domain.DeviceID(did)
	return &d, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Device, error) {
	query := `
		SELECT id, name, description, max_consumption, created_at
		FROM devices ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []*models.Device
	for rows.Next() {
		var (
			d   models.Device
			did uuid.UUID
		)
		if err := rows.Scan(&did, &d.Name, &d.Description, &d.MaxConsumption, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		d.ID = domain.DeviceID(did)
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, d *models.Device) error {
	query := `
		UPDATE devices SET name = $2, description = $3, max_consumption = $4
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(d.ID), d.Name, d.Description, d.MaxConsumption)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	return errIfNoRows(result)
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.DeviceID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return errIfNoRows(result)
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
