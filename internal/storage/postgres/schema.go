// Package postgres provides the PostgreSQL implementation of the storage
// interfaces using lib/pq. It mirrors the SQLite backend's semantics; the
// engine layer never sees which backend is underneath.
package postgres

// Schema contains the SQL statements to create the database schema for
// PostgreSQL. NewStore applies it on open; all statements are idempotent.
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
    last_contact TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Notes table: immutable transcript anchors (provenance)
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL REFERENCES persons(id),
    transcript TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    previous_values JSONB,
    note_id TEXT REFERENCES notes(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    resolved_at TIMESTAMPTZ,
    note_id TEXT REFERENCES notes(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Memories table: append-only episodic event records
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL REFERENCES persons(id),
    description TEXT NOT NULL,
    event_date TEXT,
    is_shared BOOLEAN NOT NULL DEFAULT FALSE,
    note_id TEXT REFERENCES notes(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Groups table: named labels, unique case-insensitively
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_groups_name_lower
    ON groups(LOWER(name));

-- Person-group membership (many-to-many)
CREATE TABLE IF NOT EXISTS person_groups (
    person_id TEXT NOT NULL REFERENCES persons(id),
    group_id TEXT NOT NULL REFERENCES groups(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (person_id, group_id)
);

-- Settings table: persisted user configuration
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Indexes for the common per-person lookups
CREATE INDEX IF NOT EXISTS idx_facts_person ON facts(person_id);
CREATE INDEX IF NOT EXISTS idx_facts_person_category ON facts(person_id, category);
CREATE INDEX IF NOT EXISTS idx_topics_person ON topics(person_id);
CREATE INDEX IF NOT EXISTS idx_topics_person_status ON topics(person_id, status);
CREATE INDEX IF NOT EXISTS idx_memories_person ON memories(person_id);
CREATE INDEX IF NOT EXISTS idx_notes_person ON notes(person_id);
`
