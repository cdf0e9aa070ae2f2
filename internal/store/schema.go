package store

const (
	tableTools       = "tools"
	tableMetadata    = "metadata"
	tableVersionData = "version_data"
)

// Tool identity is (name, location); there is no surrogate key so the
// version_data foreign key can cascade on the natural key.
//
// Conflicts are resolved with explicit ON CONFLICT ... DO UPDATE upserts in
// the queries, never with ON CONFLICT REPLACE: a replace deletes the old row,
// which changes its id and breaks rows that reference it.
const schema = `
CREATE TABLE IF NOT EXISTS tools (
    name TEXT NOT NULL,
    updated TEXT NOT NULL,
    location TEXT NOT NULL,
    description TEXT,
    UNIQUE (name, location)
);

CREATE TABLE IF NOT EXISTS metadata (
    meta_id INTEGER PRIMARY KEY,
    tool_id TEXT NOT NULL,
    tool_location TEXT NOT NULL,
    uri TEXT UNIQUE,
    repository TEXT NOT NULL,
    tool TEXT NOT NULL,
    provider TEXT NOT NULL,
    suite TEXT,
    method TEXT NOT NULL,
    origin INTEGER NOT NULL,
    docker_origin INTEGER NOT NULL,
    FOREIGN KEY (tool_id, tool_location) REFERENCES tools (name, location),
    UNIQUE (uri, repository, tool, provider)
);

CREATE TABLE IF NOT EXISTS version_data (
    id INTEGER PRIMARY KEY,
    tool_id TEXT NOT NULL,
    tool_location TEXT NOT NULL,
    meta_id INTEGER,
    version TEXT,
    version_type TEXT,
    source TEXT NOT NULL,
    tags TEXT NOT NULL,
    updated TEXT NOT NULL,
    origin INTEGER NOT NULL,
    size TEXT NOT NULL,
    created TEXT NOT NULL,
    FOREIGN KEY (meta_id) REFERENCES metadata (meta_id) ON DELETE SET NULL,
    FOREIGN KEY (tool_id, tool_location) REFERENCES tools (name, location) ON DELETE CASCADE,
    UNIQUE (tool_id, version, version_type, source)
);

CREATE INDEX IF NOT EXISTS idx_version_tool ON version_data(tool_id, tool_location);
CREATE INDEX IF NOT EXISTS idx_version_meta ON version_data(meta_id);
CREATE INDEX IF NOT EXISTS idx_metadata_tool ON metadata(tool_id, tool_location);
`
