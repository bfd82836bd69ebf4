package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists checkpoints across restarts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed checkpoint store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, topic string, partition int32) (int64, bool, error) {
	var next int64
	err := s.db.QueryRowContext(ctx,
		`SELECT next_offset FROM consumer_checkpoints WHERE topic = $1 AND partition_id = $2`,
		topic, partition).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load checkpoint: %w", err)
	}
	return next, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, topic string, partition int32, next int64) error {
	query := `
		INSERT INTO consumer_checkpoints (topic, partition_id, next_offset, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (topic, partition_id)
			DO UPDATE SET next_offset = EXCLUDED.next_offset, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, topic, partition, next, time.Now().UTC()); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
