package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fieldsignal/convergence/pkg/event"
)

// Dialect distinguishes the two supported backends. The idempotent-insert
// SQL differs only in placeholder syntax; both speak RETURNING.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// Repo is the idempotent persistence layer for raw events and alerts,
// grounded on the insert-then-fall-back-to-select pattern the teacher's
// idempotency store uses for HTTP response caching, adapted here to the
// domain rows spec §4.5 defines.
type Repo struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an already-opened *sql.DB. Schema creation is the caller's job
// (see PostgresSchema/SQLiteSchema) — this package never runs DDL itself.
func New(db *sql.DB, dialect Dialect) *Repo {
	return &Repo{db: db, dialect: dialect}
}

func (r *Repo) ph(n int) string {
	if r.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// InsertRawEvent inserts ev if no row already exists for its
// (source_system, source_event_id) pair, returning the row id and whether
// this call actually inserted a new row (false means an existing row was
// returned instead).
func (r *Repo) InsertRawEvent(ctx context.Context, ev event.RawEvent) (id int64, inserted bool, err error) {
	payload, err := json.Marshal(ev.PayloadJSON)
	if err != nil {
		return 0, false, fmt.Errorf("storage: marshal payload: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO event_log (source_system, source_event_id, event_time, payload_json, content_hash, canonical_doc_id)
		VALUES (%s, %s, %s, %s, %s, %s)
		ON CONFLICT (source_system, source_event_id) WHERE source_event_id IS NOT NULL DO NOTHING
		RETURNING id`,
		r.ph(1), r.ph(2), r.ph(3), r.ph(4), r.ph(5), r.ph(6))

	row := r.db.QueryRowContext(ctx, query,
		ev.SourceSystem, ev.SourceEventID, ev.EventTime, string(payload), ev.ContentHash, ev.CanonicalDocID)
	if scanErr := row.Scan(&id); scanErr == nil {
		return id, true, nil
	} else if scanErr != sql.ErrNoRows {
		return 0, false, fmt.Errorf("storage: insert event: %w", scanErr)
	}

	// Conflict: the partial unique index only applies when source_event_id
	// is non-null, so the fallback select must mirror that condition.
	if ev.SourceEventID == nil {
		return 0, false, fmt.Errorf("storage: insert event: conflict with nil source_event_id")
	}
	selectQuery := fmt.Sprintf(`
		SELECT id FROM event_log WHERE source_system = %s AND source_event_id = %s`,
		r.ph(1), r.ph(2))
	if err := r.db.QueryRowContext(ctx, selectQuery, ev.SourceSystem, *ev.SourceEventID).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("storage: select existing event: %w", err)
	}
	return id, false, nil
}

// InsertAlert inserts a if no row already exists for its alert_id, returning
// whether this call actually inserted a new row.
func (r *Repo) InsertAlert(ctx context.Context, a event.Alert) (inserted bool, err error) {
	evidence, err := json.Marshal(a.EvidencePointer)
	if err != nil {
		return false, fmt.Errorf("storage: marshal evidence_pointer: %w", err)
	}
	scoreSummary, err := json.Marshal(a.ScoreSummary)
	if err != nil {
		return false, fmt.Errorf("storage: marshal score_summary: %w", err)
	}
	details, err := json.Marshal(a.Details)
	if err != nil {
		return false, fmt.Errorf("storage: marshal details: %w", err)
	}
	var regimeContext any
	if a.RegimeContext != nil {
		rc, err := json.Marshal(a.RegimeContext)
		if err != nil {
			return false, fmt.Errorf("storage: marshal regime_context: %w", err)
		}
		regimeContext = string(rc)
	}

	cols := []string{"alert_id", "tier", "event_type", "event_time", "company_id", "asset_id",
		"canonical_doc_id", "evidence_pointer", "score_summary", "summary", "details", "regime_context"}
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = r.ph(i + 1)
	}
	query := fmt.Sprintf(`
		INSERT INTO alerts (%s)
		VALUES (%s)
		ON CONFLICT (alert_id) DO NOTHING`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	result, err := r.db.ExecContext(ctx, query,
		a.AlertID, string(a.Tier), a.EventType, a.EventTime, a.CompanyID, a.AssetID,
		a.CanonicalDocID, string(evidence), string(scoreSummary), a.Summary, string(details), regimeContext)
	if err != nil {
		return false, fmt.Errorf("storage: insert alert: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: rows affected: %w", err)
	}
	return n > 0, nil
}

// LoadRecentEvents returns event_log rows with ingest_time >= since,
// optionally filtered to a single source system (empty string means all).
func (r *Repo) LoadRecentEvents(ctx context.Context, since time.Time, sourceSystem string) ([]event.RawEvent, error) {
	var query string
	var args []any
	if sourceSystem == "" {
		query = fmt.Sprintf(`SELECT id, source_system, source_event_id, event_time, ingest_time, payload_json, content_hash, canonical_doc_id
			FROM event_log WHERE ingest_time >= %s ORDER BY ingest_time DESC`, r.ph(1))
		args = []any{since}
	} else {
		query = fmt.Sprintf(`SELECT id, source_system, source_event_id, event_time, ingest_time, payload_json, content_hash, canonical_doc_id
			FROM event_log WHERE ingest_time >= %s AND source_system = %s ORDER BY ingest_time DESC`, r.ph(1), r.ph(2))
		args = []any{since, sourceSystem}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: load recent events: %w", err)
	}
	defer rows.Close()

	var out []event.RawEvent
	for rows.Next() {
		var ev event.RawEvent
		var payload string
		if err := rows.Scan(&ev.ID, &ev.SourceSystem, &ev.SourceEventID, &ev.EventTime, &ev.IngestTime,
			&payload, &ev.ContentHash, &ev.CanonicalDocID); err != nil {
			return nil, fmt.Errorf("storage: scan event row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &ev.PayloadJSON); err != nil {
			return nil, fmt.Errorf("storage: unmarshal payload_json: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// LoadRecentAlerts returns alerts rows with ingest_time >= since, most
// recent first.
func (r *Repo) LoadRecentAlerts(ctx context.Context, since time.Time) ([]event.Alert, error) {
	query := fmt.Sprintf(`SELECT id, alert_id, tier, event_type, event_time, ingest_time, company_id, asset_id,
		canonical_doc_id, evidence_pointer, score_summary, summary, details, regime_context
		FROM alerts WHERE ingest_time >= %s ORDER BY ingest_time DESC`, r.ph(1))

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("storage: load recent alerts: %w", err)
	}
	defer rows.Close()

	var out []event.Alert
	for rows.Next() {
		var a event.Alert
		var tier string
		var evidence, scoreSummary, details string
		var regimeContext sql.NullString
		if err := rows.Scan(&a.ID, &a.AlertID, &tier, &a.EventType, &a.EventTime, &a.IngestTime,
			&a.CompanyID, &a.AssetID, &a.CanonicalDocID, &evidence, &scoreSummary, &a.Summary, &details, &regimeContext); err != nil {
			return nil, fmt.Errorf("storage: scan alert row: %w", err)
		}
		a.Tier = event.Tier(tier)
		if err := json.Unmarshal([]byte(evidence), &a.EvidencePointer); err != nil {
			return nil, fmt.Errorf("storage: unmarshal evidence_pointer: %w", err)
		}
		if err := json.Unmarshal([]byte(scoreSummary), &a.ScoreSummary); err != nil {
			return nil, fmt.Errorf("storage: unmarshal score_summary: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &a.Details); err != nil {
			return nil, fmt.Errorf("storage: unmarshal details: %w", err)
		}
		if regimeContext.Valid {
			if err := json.Unmarshal([]byte(regimeContext.String), &a.RegimeContext); err != nil {
				return nil, fmt.Errorf("storage: unmarshal regime_context: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LoadSourceCounts returns a count of event_log rows per source_system with
// ingest_time >= since. observability.Build does not take these counts; it
// derives per-source event counts from the events it is given.
func (r *Repo) LoadSourceCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	query := fmt.Sprintf(`SELECT source_system, COUNT(*) FROM event_log WHERE ingest_time >= %s GROUP BY source_system`, r.ph(1))
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("storage: load source counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var sourceSystem string
		var count int
		if err := rows.Scan(&sourceSystem, &count); err != nil {
			return nil, fmt.Errorf("storage: scan source count row: %w", err)
		}
		out[sourceSystem] = count
	}
	return out, rows.Err()
}
