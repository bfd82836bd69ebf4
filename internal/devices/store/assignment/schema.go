package assignment

// Schema is the DDL backing PostgresStore. The unique index on device_id
// enforces at most one assignment per device.
const Schema = `
CREATE TABLE IF NOT EXISTS device_assignments (
	id          UUID PRIMARY KEY,
	device_id   UUID NOT NULL,
	user_id     UUID NOT NULL,
	assigned_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS device_assignments_device_id_idx
	ON device_assignments (device_id);
CREATE INDEX IF NOT EXISTS device_assignments_user_id_idx
	ON device_assignments (user_id);
`
