package device

// Schema is the DDL backing PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS devices (
	id              UUID PRIMARY KEY,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	max_consumption DOUBLE PRECISION NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
`
