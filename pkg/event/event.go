// Package event defines the canonical RawEvent and Alert record shapes
// that cross the storage boundary, plus schema-version compatibility.
package event

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion tags the shape of RawEvent.PayloadJSON and Alert as
// currently implemented. Bump the minor component when a new recognized
// payload key is added, the major component when an existing key changes
// meaning or is removed.
const SchemaVersion = "1.3.0"

var schemaSemver = semver.MustParse(SchemaVersion)

// CompatibleWith reports whether the running schema version satisfies a
// semver constraint (e.g. "^1.0.0"), letting a downstream consumer detect a
// breaking schema change before decoding PayloadJSON.
func CompatibleWith(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}
	return c.Check(schemaSemver), nil
}

// RawEvent is the append-only canonical event record (spec §3).
type RawEvent struct {
	ID             int64          `json:"id,omitempty"`
	SourceSystem   string         `json:"source_system"`
	SourceEventID  *string        `json:"source_event_id,omitempty"`
	EventTime      *time.Time     `json:"event_time,omitempty"`
	IngestTime     time.Time      `json:"ingest_time"`
	PayloadJSON    map[string]any `json:"payload_json"`
	ContentHash    string         `json:"content_hash"`
	CanonicalDocID string         `json:"canonical_doc_id,omitempty"`
}

// Tier is the severity band of an alert. The empty tier means "below
// reporting threshold; do not emit".
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
	TierNone   Tier = ""
)

// rank orders tiers for the monotonicity property: "" < low < medium < high.
var tierRank = map[Tier]int{
	TierNone:   0,
	TierLow:    1,
	TierMedium: 2,
	TierHigh:   3,
}

// Rank returns t's position in the tier ordering, used to assert tiering
// monotonicity in tests.
func (t Tier) Rank() int {
	return tierRank[t]
}

// Alert is the graded, stably-identified output of the alert generator
// (spec §3).
type Alert struct {
	ID             int64          `json:"id,omitempty"`
	AlertID        string         `json:"alert_id"`
	Tier           Tier           `json:"tier"`
	EventType      string         `json:"event_type"`
	EventTime      *time.Time     `json:"event_time,omitempty"`
	IngestTime     time.Time      `json:"ingest_time"`
	CompanyID      *string        `json:"company_id,omitempty"`
	AssetID        *string        `json:"asset_id,omitempty"`
	CanonicalDocID string         `json:"canonical_doc_id"`
	EvidencePointer map[string]any `json:"evidence_pointer"`
	ScoreSummary   map[string]any `json:"score_summary"`
	Summary        string         `json:"summary"`
	Details        map[string]any `json:"details"`
	RegimeContext  map[string]any `json:"regime_context,omitempty"`

	// IntegritySignature is an optional compact JWS over CanonicalDocID +
	// EvidencePointer (see pkg/alertgen); empty when no signer is configured.
	IntegritySignature string `json:"integrity_signature,omitempty"`
}

// Outcome records, purely informationally, what happened when a scored
// chain row was run through the alert generator — it never changes storage
// behavior (insert-or-ignore idempotency is unaffected).
type Outcome string

const (
	OutcomeEmitted        Outcome = "emitted"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeBelowThreshold Outcome = "below_threshold"
)

// FormatISOUTC renders t as ISO-8601 UTC with a literal "Z" suffix, the
// convention every timestamp in JSON payloads follows (spec §6).
func FormatISOUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999999Z")
}
