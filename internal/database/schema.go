package database

const schema = `
CREATE TABLE kv_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_kv_updated_at ON kv_store(updated_at);
`

// migrations contains incremental schema changes.
// migrations[0] is empty because version 0 uses the base schema
var migrations = []string{
	"",
}
