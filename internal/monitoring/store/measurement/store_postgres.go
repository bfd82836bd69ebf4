package measurement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"wattgrid/internal/monitoring/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists samples. A unique index on (device_id, ts) backs
// the redelivery dedup invariant.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed measurement store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, m *models.SensorMeasurement) error {
	query := `
		INSERT INTO sensor_measurements (id, device_id, ts, value)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(m.ID), uuid.UUID(m.DeviceID), m.Timestamp.UTC(), m.Value)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, deviceID domain.DeviceID, ts time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM sensor_measurements WHERE device_id = $1 AND ts = $2)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, uuid.UUID(deviceID), ts.UTC()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check measurement: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SumForWindow(ctx context.Context, deviceID domain.DeviceID, from, to time.Time) (float64, int, error) {
	query := `
		SELECT COALESCE(SUM(value), 0), COUNT(*)
		FROM sensor_measurements
		WHERE device_id = $1 AND ts >= $2 AND ts <= $3
	`
	var (
		total float64
		count int
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(deviceID), from.UTC(), to.UTC()).
		Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("sum window: %w", err)
	}
	return total, count, nil
}

func (s *PostgresStore) DeleteByDevice(ctx context.Context, deviceID domain.DeviceID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sensor_measurements WHERE device_id = $1`, uuid.UUID(deviceID)); err != nil {
		return fmt.Errorf("delete measurements by device: %w", err)
	}
	return nil
}
