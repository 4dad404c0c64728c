package store

// dependencies.rubygem_id carries no foreign key; readers skip edges whose
// target row is missing.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rubygems (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS versions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    rubygem_id INTEGER NOT NULL,
    number TEXT NOT NULL,
    platform TEXT NOT NULL DEFAULT 'ruby',
    indexed BOOLEAN NOT NULL DEFAULT TRUE,
    checksum TEXT,
    info_checksum TEXT,
    required_ruby_version TEXT,
    rubygems_version TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (rubygem_id, number, platform),
    FOREIGN KEY (rubygem_id) REFERENCES rubygems(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS dependencies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    version_id INTEGER NOT NULL,
    rubygem_id INTEGER NOT NULL,
    requirements TEXT NOT NULL,
    FOREIGN KEY (version_id) REFERENCES versions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL,
    reason TEXT,
    package_count INTEGER,
    snapshot_path TEXT NOT NULL,
    names_digest TEXT NOT NULL,
    versions_digest TEXT NOT NULL,
    deps_digest TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_versions_rubygem ON versions(rubygem_id, indexed);
CREATE INDEX IF NOT EXISTS idx_deps_version ON dependencies(version_id);
CREATE INDEX IF NOT EXISTS idx_deps_rubygem ON dependencies(rubygem_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS rubygems (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS versions (
    id BIGSERIAL PRIMARY KEY,
    rubygem_id BIGINT NOT NULL REFERENCES rubygems(id) ON DELETE CASCADE,
    number TEXT NOT NULL,
    platform TEXT NOT NULL DEFAULT 'ruby',
    indexed BOOLEAN NOT NULL DEFAULT TRUE,
    checksum TEXT,
    info_checksum TEXT,
    required_ruby_version TEXT,
    rubygems_version TEXT,
    created_at TEXT NOT NULL,
    UNIQUE (rubygem_id, number, platform)
);

CREATE TABLE IF NOT EXISTS dependencies (
    id BIGSERIAL PRIMARY KEY,
    version_id BIGINT NOT NULL REFERENCES versions(id) ON DELETE CASCADE,
    rubygem_id BIGINT NOT NULL,
    requirements TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
    id BIGSERIAL PRIMARY KEY,
    created_at TEXT NOT NULL,
    reason TEXT,
    package_count INTEGER,
    snapshot_path TEXT NOT NULL,
    names_digest TEXT NOT NULL,
    versions_digest TEXT NOT NULL,
    deps_digest TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_versions_rubygem ON versions(rubygem_id, indexed);
CREATE INDEX IF NOT EXISTS idx_deps_version ON dependencies(version_id);
CREATE INDEX IF NOT EXISTS idx_deps_rubygem ON dependencies(rubygem_id);
`
