package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS remote_commands (
	id TEXT PRIMARY KEY,
	scope TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	options_json TEXT NOT NULL DEFAULT '[]',
	version INTEGER NOT NULL DEFAULT 1,
	updated_at TEXT NOT NULL,
	UNIQUE(scope, name)
);

CREATE INDEX IF NOT EXISTS idx_remote_commands_scope ON remote_commands(scope);
`
