package storage

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	user_id       INTEGER PRIMARY KEY,
	username      TEXT NOT NULL DEFAULT '',
	first_name    TEXT NOT NULL DEFAULT '',
	language      TEXT NOT NULL DEFAULT '',
	registered_at TEXT NOT NULL,
	last_active   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS topics (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL UNIQUE,
	group_id     TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	member_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS user_topics (
	user_id   INTEGER NOT NULL,
	topic_id  INTEGER NOT NULL REFERENCES topics(id),
	joined_at TEXT NOT NULL,
	PRIMARY KEY (user_id, topic_id)
);
CREATE TABLE IF NOT EXISTS interest_pool (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL,
	topic_label TEXT NOT NULL,
	query_text  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	status      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS support_messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	status     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interest_pool_user ON interest_pool(user_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	user_id       BIGINT PRIMARY KEY,
	username      TEXT NOT NULL DEFAULT '',
	first_name    TEXT NOT NULL DEFAULT '',
	language      TEXT NOT NULL DEFAULT '',
	registered_at TEXT NOT NULL,
	last_active   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS topics (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	group_id     TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	member_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS user_topics (
	user_id   BIGINT NOT NULL,
	topic_id  BIGINT NOT NULL REFERENCES topics(id),
	joined_at TEXT NOT NULL,
	PRIMARY KEY (user_id, topic_id)
);
CREATE TABLE IF NOT EXISTS interest_pool (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL,
	topic_label TEXT NOT NULL,
	query_text  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	status      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS support_messages (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	status     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interest_pool_user ON interest_pool(user_id);
`
