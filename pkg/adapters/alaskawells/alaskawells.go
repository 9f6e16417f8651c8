// Package alaskawells canonicalizes Alaska well-status records (spud,
// completion, production) into RawEvents. It shares its lineage formula
// with alaskapermits since both key off the same permit/operator/region
// identity triple.
package alaskawells

import (
	"context"
	"io"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/universe"
)

// SourceSystem is the source_system tag stamped on every event this
// adapter produces.
const SourceSystem = "alaska_wells"

var typeAliases = map[string]string{
	"spud_reported":       "spud_reported",
	"spud":                "spud_reported",
	"well_record":         "well_record",
	"completion_reported": "completion_reported",
	"completion":          "completion_reported",
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

// LineageID derives the grouping key for an Alaska well record, identical
// to alaskapermits.LineageID so well-stage events join the same chain as
// the permit that preceded them.
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
		sourceEventID := canonical.SourceEventID(rec.SourceEventID, "ak_wells", lineageID+"|"+eventType)

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
