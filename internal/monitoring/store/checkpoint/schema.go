package checkpoint

// Schema is the DDL backing PostgresStore. One row per consumed partition,
// upserted on every advance.
const Schema = `
CREATE TABLE IF NOT EXISTS consumer_checkpoints (
	topic        TEXT NOT NULL,
	partition_id INT NOT NULL,
	next_offset  BIGINT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (topic, partition_id)
);
`
