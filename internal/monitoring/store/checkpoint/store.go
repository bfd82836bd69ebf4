// Package checkpoint persists a replica's consumption position on its
// measurement partition. The partition consumer has no broker-committed
// offset, so without a checkpoint every restart replays the partition from
// the start; dedup keeps that correct but the replay grows without bound.
package checkpoint

import "context"

// Store records the next offset to consume per topic partition. A missed
// Save only costs replay on the next restart, never correctness, so callers
// treat Save failures as warnings.
type Store interface {
	// Load returns the persisted resume position. ok is false when no
	// checkpoint was ever saved for the partition.
	Load(ctx context.Context, topic string, partition int32) (next int64, ok bool, err error)

	Save(ctx context.Context, topic string, partition int32, next int64) error
}
