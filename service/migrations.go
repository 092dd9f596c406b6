package service

// migration is one schema step; versions are sequential from 1.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS templates (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	variables     TEXT NOT NULL DEFAULT '[]',
	template_text TEXT NOT NULL DEFAULT '',
	witnesses     TEXT NOT NULL DEFAULT '[]',
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_documents (
	id             TEXT PRIMARY KEY,
	document_id    TEXT NOT NULL REFERENCES templates(id),
	tenant         TEXT NOT NULL DEFAULT '',
	owner          TEXT NOT NULL,
	answers        TEXT NOT NULL DEFAULT '{}',
	current_step   INTEGER NOT NULL DEFAULT 0,
	total_steps    INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL DEFAULT 'draft',
	generated_text TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_user_documents_owner ON user_documents(owner, updated_at);

CREATE TABLE IF NOT EXISTS library_items (
	id           TEXT PRIMARY KEY,
	owner        TEXT NOT NULL,
	name         TEXT NOT NULL,
	value        TEXT NOT NULL,
	tags         TEXT NOT NULL DEFAULT '[]',
	frequent_use INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_library_items_owner ON library_items(owner);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
