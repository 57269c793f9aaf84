// Package sqlite provides the SQLite implementation of the storage
// interfaces using the CGO-free modernc.org/sqlite driver.
package sqlite

// Schema contains the SQL statements to create the database schema.
// NewStore applies it on open; the migrations directory carries later
// changes (see internal/storage.MigrationManager).
const Schema = `
-- Persons table: the roster
CREATE TABLE IF NOT EXISTS persons (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT,
    nickname TEXT,
    summary TEXT,
    starters TEXT,
    phone TEXT,
    email TEXT,
    birthday TEXT,
    last_contact TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Notes table: immutable transcript anchors (provenance)
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL REFERENCES persons(id),
    transcript TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Facts table: atomic claims about a person.
-- previous_values is a JSON array, oldest to newest, populated only for
-- singleton categories.
CREATE TABLE IF NOT EXISTS facts (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL REFERENCES persons(id),
    category TEXT NOT NULL,
    label TEXT NOT NULL,
    value TEXT NOT NULL,
    previous_values TEXT,
    note_id TEXT REFERENCES notes(id),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Topics table: time-bound follow-up items
CREATE TABLE IF NOT EXISTS topics (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL REFERENCES persons(id),
    title TEXT NOT NULL,
    context TEXT,
    status TEXT NOT NULL DEFAULT 'active',
    event_date TEXT,
    resolution TEXT,
    resolved_at TIMESTAMP,
    note_id TEXT REFERENCES notes(id),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Memories table: append-only episodic event records
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL REFERENCES persons(id),
    description TEXT NOT NULL,
    event_date TEXT,
    is_shared INTEGER NOT NULL DEFAULT 0,
    note_id TEXT REFERENCES notes(id),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Groups table: named labels, unique case-insensitively
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_groups_name_nocase
    ON groups(name COLLATE NOCASE);

-- Person-group membership (many-to-many)
CREATE TABLE IF NOT EXISTS person_groups (
    person_id TEXT NOT NULL REFERENCES persons(id),
    group_id TEXT NOT NULL REFERENCES groups(id),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (person_id, group_id)
);

-- Settings table: persisted user configuration (DB overrides env vars)
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for the common per-person lookups
CREATE INDEX IF NOT EXISTS idx_facts_person ON facts(person_id);
CREATE INDEX IF NOT EXISTS idx_facts_person_category ON facts(person_id, category);
CREATE INDEX IF NOT EXISTS idx_topics_person ON topics(person_id);
CREATE INDEX IF NOT EXISTS idx_topics_person_status ON topics(person_id, status);
CREATE INDEX IF NOT EXISTS idx_memories_person ON memories(person_id);
CREATE INDEX IF NOT EXISTS idx_notes_person ON notes(person_id);
`
