package credential

// Schema is the DDL backing PostgresStore. The unique index on
// lower(username) makes CreateIfUsernameAvailable atomic.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id            UUID PRIMARY KEY,
	username      TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	user_id       UUID,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS credentials_username_idx
	ON credentials (lower(username));
CREATE INDEX IF NOT EXISTS credentials_user_id_idx
	ON credentials (user_id);
`
