package measurement

// Schema is the DDL backing PostgresStore. The unique index on
// (device_id, ts) backs redelivery deduplication.
const Schema = `
CREATE TABLE IF NOT EXISTS sensor_measurements (
	id        UUID PRIMARY KEY,
	device_id UUID NOT NULL,
	ts        TIMESTAMPTZ NOT NULL,
	value     DOUBLE PRECISION NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS sensor_measurements_device_ts_idx
	ON sensor_measurements (device_id, ts);
`
