package canonical

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/hashing"
	"github.com/fieldsignal/convergence/pkg/storage"
)

// Repo is the subset of storage.Repo every adapter depends on, kept narrow
// so tests can substitute a fake without pulling in database/sql.
type Repo interface {
	InsertRawEvent(ctx context.Context, ev event.RawEvent) (id int64, inserted bool, err error)
}

var _ Repo = (*storage.Repo)(nil)

// BatchResult is the (processed, inserted) count pair spec §7 requires every
// batch-ingest operation to report.
type BatchResult struct {
	Processed int
	Inserted  int
}

// InsertEvent computes content_hash and canonical_doc_id from sourceSystem
// and payload, assembles a RawEvent, and performs the idempotent insert
// (contract item 8 of spec §4.3). sourceEventID may be empty, meaning the
// event carries no stable upstream id and is always inserted fresh.
func InsertEvent(ctx context.Context, repo Repo, sourceSystem, sourceEventID string, eventTime *time.Time, payload map[string]any) (id int64, inserted bool, err error) {
	contentHash, err := hashing.ContentHash(payload)
	if err != nil {
		return 0, false, fmt.Errorf("canonical: content hash: %w", err)
	}
	canonicalDocID := hashing.CanonicalDocID(sourceSystem, contentHash)

	var sourceEventIDPtr *string
	if sourceEventID != "" {
		sourceEventIDPtr = &sourceEventID
	}

	ev := event.RawEvent{
		SourceSystem:   sourceSystem,
		SourceEventID:  sourceEventIDPtr,
		EventTime:      eventTime,
		PayloadJSON:    payload,
		ContentHash:    contentHash,
		CanonicalDocID: canonicalDocID,
	}
	return repo.InsertRawEvent(ctx, ev)
}

// SourceEventID derives the deterministic fallback id ("{prefix}_{sha24(seed)}")
// used when an upstream record carries no explicit identifier (spec §4.3
// item 7).
func SourceEventID(explicit, prefix, seed string) string {
	if explicit != "" {
		return explicit
	}
	return fmt.Sprintf("%s_%s", prefix, hashing.TruncatedHash(seed, 24))
}
