package profile

// Schema is the DDL backing PostgresStore. The unique index on
// lower(username) makes CreateIfUsernameAvailable atomic; the index on
// credentials_id serves the saga redelivery lookup.
const Schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id             UUID PRIMARY KEY,
	credentials_id UUID NOT NULL,
	username       TEXT NOT NULL,
	email          TEXT NOT NULL DEFAULT '',
	full_name      TEXT NOT NULL DEFAULT '',
	role           TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS user_profiles_username_idx
	ON user_profiles (lower(username));
CREATE INDEX IF NOT EXISTS user_profiles_credentials_id_idx
	ON user_profiles (credentials_id);
`
