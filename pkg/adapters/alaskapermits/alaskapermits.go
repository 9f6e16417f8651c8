// Package alaskapermits canonicalizes Alaska Oil & Gas Conservation
// Commission permit records into RawEvents.
package alaskapermits

import (
	"context"
	"io"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/universe"
)

// SourceSystem is the source_system tag stamped on every event this
// adapter produces.
const SourceSystem = "alaska_permits"

var typeAliases = map[string]string{
	"permit_filed":    "permit_filed",
	"permit_approved": "permit_filed",
	"permit_issued":   "permit_filed",
}

// NormalizeType resolves a raw upstream type string through the alias
// table, falling back to the lowercased raw value.
func NormalizeType(raw any) string {
	key := canonical.NormalizeKey(raw)
	if v, ok := typeAliases[key]; ok {
		return v
	}
	return key
}

// LineageID derives the grouping key for an Alaska permit record (spec
// §4.3 item 5): first 20 hex of SHA-256 of "AK|{permit_id}|{operator}|{region}".
func LineageID(permitID, operator, region string) string {
	seed := "AK|" + permitID + "|" + operator + "|" + region
	return canonical.HexSeed(seed, 20)
}

// CanonicalizePayload applies type aliasing, the lineage formula, and
// resolver lookup to a raw payload.
func CanonicalizePayload(u universe.Universe, raw map[string]any) map[string]any {
	payload := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		payload[k] = v
	}
	payload["type"] = NormalizeType(raw["type"])
	if _, ok := payload["region"]; !ok {
		payload["region"] = "Alaska"
	}

	permitID := canonical.CleanString(raw["permit_id"])
	operator := canonical.CleanString(raw["operator"])
	region := canonical.CleanString(payload["region"])
	payload["lineage_id"] = LineageID(permitID, operator, region)

	canonical.ResolveInto(u, payload)
	return payload
}

// IngestFixture reads a JSON-lines fixture and inserts every record,
// returning (processed, inserted) per spec §7.
func IngestFixture(ctx context.Context, u universe.Universe, repo canonical.Repo, r io.Reader) (canonical.BatchResult, error) {
	records := canonical.ReadFixture(r)
	result := canonical.BatchResult{}

	for _, rec := range records {
		payload := CanonicalizePayload(u, rec.PayloadJSON)
		result.Processed++

		eventType, _ := payload["type"].(string)
		lineageID, _ := payload["lineage_id"].(string)
		sourceEventID := canonical.SourceEventID(rec.SourceEventID, "ak_permits", lineageID+"|"+eventType)

		eventTime := canonical.EventTimeFromFixture(rec, payload)

		_, inserted, err := canonical.InsertEvent(ctx, repo, SourceSystem, sourceEventID, eventTime, payload)
		if err != nil {
			return result, err
		}
		if inserted {
			result.Inserted++
		}
	}
	return result, nil
}
