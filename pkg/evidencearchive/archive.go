// Package evidencearchive optionally persists a point-in-time encrypted
// snapshot of an alert's full evidence bundle (the scored chain row plus
// the event payloads that produced it) to object storage, keyed by
// alert_id (spec SPEC_FULL §11.8). This is purely additive: archival
// failures log and continue, never gating alert emission.
package evidencearchive

import (
	"context"
	"crypto/sha256"
	"encoding/json"
)

// Bundle is the evidence snapshot archived for one alert.
type Bundle struct {
	AlertID        string           `json:"alert_id"`
	CanonicalDocID string           `json:"canonical_doc_id"`
	Row            any              `json:"row"`
	Events         []map[string]any `json:"events"`
}

// Store is the dual-backend interface archival drivers implement, grounded
// on the teacher's artifact-store Store interface scoped down to archive
// and read-back.
type Store interface {
	Archive(ctx context.Context, alertID string, sealed []byte) error
	Retrieve(ctx context.Context, alertID string) ([]byte, error)
}

// deriveKey derives a 32-byte ChaCha20-Poly1305 key from an archive
// passphrase. A plain SHA-256 of the passphrase is sufficient here: the
// passphrase is operator-supplied, high-entropy secret material, not a
// user password needing a slow KDF.
func deriveKey(passphrase string) [32]byte {
	return sha256.Sum256([]byte(passphrase))
}

// Marshal serializes a bundle to the canonical JSON form sealed before
// upload.
func Marshal(b Bundle) ([]byte, error) {
	return json.Marshal(b)
}

// ArchiveBundle seals and uploads a bundle to store under its AlertID. A
// nil store is a no-op (archival is optional and never gates alert
// emission); a non-nil store's failure is returned for the caller to log
// and continue past.
func ArchiveBundle(ctx context.Context, store Store, passphrase string, b Bundle) error {
	if store == nil {
		return nil
	}
	raw, err := Marshal(b)
	if err != nil {
		return err
	}
	sealed, err := Seal(passphrase, raw)
	if err != nil {
		return err
	}
	return store.Archive(ctx, b.AlertID, sealed)
}

// RetrieveBundle downloads and opens a previously archived bundle.
func RetrieveBundle(ctx context.Context, store Store, passphrase, alertID string) (Bundle, error) {
	var b Bundle
	sealed, err := store.Retrieve(ctx, alertID)
	if err != nil {
		return b, err
	}
	raw, err := Open(passphrase, sealed)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return b, err
	}
	return b, nil
}
