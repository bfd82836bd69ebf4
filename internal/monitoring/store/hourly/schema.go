package hourly

// Schema is the DDL backing PostgresStore. The unique index on
// (device_id, hour) drives the ON CONFLICT upsert, so re-closing a window
// overwrites rather than duplicates.
const Schema = `
CREATE TABLE IF NOT EXISTS hourly_consumption (
	id         UUID PRIMARY KEY,
	device_id  UUID NOT NULL,
	hour       TIMESTAMPTZ NOT NULL,
	total      DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS hourly_consumption_device_hour_idx
	ON hourly_consumption (device_id, hour);
`
