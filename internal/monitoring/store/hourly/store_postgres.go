package hourly

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wattgrid/internal/monitoring/models"
	"wattgrid/pkg/domain"
)

// PostgresStore persists rollups. The unique index on (device_id, hour)
// drives the ON CONFLICT upsert.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed rollup store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, row *models.HourlyConsumption) error {
	query := `
		INSERT INTO hourly_consumption (id, device_id, hour, total, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id, hour) DO UPDATE SET total = EXCLUDED.total
	`
	_, err := s.db.ExecContext(ctx, query,
		row.ID, uuid.UUID(row.DeviceID), row.Hour.UTC(), row.Total, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert hourly row: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListForDay(ctx context.Context, deviceID domain.DeviceID, day time.Time) ([]*models.HourlyConsumption, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	query := `
		SELECT id, device_id, hour, total, created_at
		FROM hourly_consumption
		WHERE device_id = $1 AND hour >= $2 AND hour < $3
		ORDER BY hour
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(deviceID), dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list hourly rows: %w", err)
	}
	defer rows.Close()

	var out []*models.HourlyConsumption
	for rows.Next() {
		var (
			row models.HourlyConsumption
			dID uuid.UUID
		)
		if err := rows.Scan(&row.ID, &dID, &row.Hour, &row.Total, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hourly row: %w", err)
		}
		row.DeviceID = domain.DeviceID(dID)
		out = append(out, &row)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteByDevice(ctx context.Context, deviceID domain.DeviceID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM hourly_consumption WHERE device_id = $1`, uuid.UUID(deviceID)); err != nil {
		return fmt.Errorf("delete hourly rows by device: %w", err)
	}
	return nil
}
