// Package hashing implements the deterministic content-addressing scheme
// every canonical record in the pipeline is keyed by: RFC 8785 canonical
// JSON encoding, SHA-256, and a small set of derived identifier formulas.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gowebpki/jcs"
)

// ContentHash returns the SHA-256 hex digest of the RFC 8785 canonical JSON
// encoding of payload: object keys sorted lexicographically at every level,
// compact separators, non-ASCII left unescaped, array order preserved.
//
// payload is first passed through encoding/json so struct tags and custom
// marshalers are honored, then re-encoded canonically by jcs.Transform.
func ContentHash(payload any) (string, error) {
	raw, err := marshalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("hashing: marshal payload: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("hashing: canonicalize payload: %w", err)
	}
	return HexSHA256(canonical), nil
}

// HexSHA256 returns the lowercase hex SHA-256 digest of text.
func HexSHA256(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HexSHA256Bytes is the []byte-input variant of HexSHA256.
func HexSHA256Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalDocID derives the uniform "{source_system}:{hex16}" document id
// from a source system name and a content hash hex string. Adapters that
// mix additional identity fields into the seed still funnel the resulting
// hash through this function so the final shape is always uniform, per the
// reconciliation called for where legacy encoders diverged.
func CanonicalDocID(sourceSystem, contentHashHex string) string {
	n := 16
	if len(contentHashHex) < n {
		n = len(contentHashHex)
	}
	return fmt.Sprintf("%s:%s", sourceSystem, contentHashHex[:n])
}

// CanonicalDocIDFromSeed hashes seed and folds it into CanonicalDocID's
// uniform shape — the helper source adapters use when their canonical_doc_id
// is derived from a composed seed rather than straight from ContentHash.
func CanonicalDocIDFromSeed(sourceSystem, seed string) string {
	return CanonicalDocID(sourceSystem, HexSHA256(seed))
}

// TruncatedHash hashes seed and returns the first n hex characters.
func TruncatedHash(seed string, n int) string {
	h := HexSHA256(seed)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// AlertID derives the stable alert identifier: the first 24 hex characters
// of SHA-256("{canonicalDocID}|{tier}|{eventType}").
func AlertID(canonicalDocID, tier, eventType string) string {
	return TruncatedHash(fmt.Sprintf("%s|%s|%s", canonicalDocID, tier, eventType), 24)
}

// ChainProgressionAlertID derives the alert_id for a chain-progression
// alert. The seed retains a literal "AK" region marker regardless of the
// lineage's actual jurisdiction — a known quirk preserved verbatim for
// cross-run stability rather than corrected, since changing it would
// silently reshuffle every previously emitted alert's identity.
func ChainProgressionAlertID(lineageID, utcDate string) string {
	return TruncatedHash(fmt.Sprintf("chain_progression|AK|%s|%s", lineageID, utcDate), 24)
}

// ChainProgressionDocID derives the canonical_doc_id for a chain-progression
// alert from its lineage and last-event-time string (already ISO-8601 UTC).
func ChainProgressionDocID(lineageID, lastEventTimeISO string) string {
	return TruncatedHash(fmt.Sprintf("chain_progression|%s|%s", lineageID, lastEventTimeISO), 24)
}
