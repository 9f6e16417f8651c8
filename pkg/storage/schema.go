// Package storage is the idempotent persistence layer for raw events and
// alerts (spec §4.5). It supports both a PostgreSQL-backed deployment
// (lib/pq) and an embeddable SQLite store (modernc.org/sqlite) for
// local/dev/test runs, chosen by the caller's driver name rather than by
// any detection in this package.
package storage

// PostgresSchema creates the event_log/alerts tables plus the partial
// unique index idempotent inserts rely on. Intentionally not run by this
// package automatically — migrations are a deploy-time concern.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS event_log (
	id BIGSERIAL PRIMARY KEY,
	source_system TEXT NOT NULL,
	source_event_id TEXT,
	event_time TIMESTAMPTZ,
	ingest_time TIMESTAMPTZ NOT NULL DEFAULT now(),
	payload_json JSONB NOT NULL,
	content_hash TEXT NOT NULL,
	canonical_doc_id TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS event_log_source_event_uniq
	ON event_log (source_system, source_event_id)
	WHERE source_event_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS alerts (
	id BIGSERIAL PRIMARY KEY,
	alert_id TEXT NOT NULL UNIQUE,
	tier TEXT NOT NULL,
	event_type TEXT NOT NULL,
	event_time TIMESTAMPTZ,
	ingest_time TIMESTAMPTZ NOT NULL DEFAULT now(),
	company_id TEXT,
	asset_id TEXT,
	canonical_doc_id TEXT NOT NULL,
	evidence_pointer JSONB NOT NULL,
	score_summary JSONB NOT NULL,
	summary TEXT NOT NULL,
	details JSONB NOT NULL,
	regime_context JSONB
);
`

// SQLiteSchema is the modernc.org/sqlite equivalent, used for local
// fixture-driven runs and tests where a PostgreSQL instance isn't available.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS event_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_system TEXT NOT NULL,
	source_event_id TEXT,
	event_time TEXT,
	ingest_time TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	payload_json TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	canonical_doc_id TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS event_log_source_event_uniq
	ON event_log (source_system, source_event_id)
	WHERE source_event_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	alert_id TEXT NOT NULL UNIQUE,
	tier TEXT NOT NULL,
	event_type TEXT NOT NULL,
	event_time TEXT,
	ingest_time TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	company_id TEXT,
	asset_id TEXT,
	canonical_doc_id TEXT NOT NULL,
	evidence_pointer TEXT NOT NULL,
	score_summary TEXT NOT NULL,
	summary TEXT NOT NULL,
	details TEXT NOT NULL,
	regime_context TEXT
);
`
