// Package texasrrc canonicalizes Texas Railroad Commission permit, spud,
// drilling, completion, production, and plugging records into RawEvents.
package texasrrc

import (
	"context"
	"io"
	"strings"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/universe"
)

// SourceSystem is the source_system tag stamped on every event this
// adapter produces.
const SourceSystem = "tx_rrc"

// typeAliases maps upstream-reported type strings to a canonical event
// type. Several upstream spellings collapse onto one canonical value.
var typeAliases = map[string]string{
	"permit_filed":     "permit_filed",
	"permit_issued":    "permit_issued",
	"drilling_permit":  "permit_issued",
	"spud_reported":    "spud_reported",
	"spud":             "spud_reported",
	"drill_result":     "drill_result",
	"drilling_result":  "drill_result",
	"completion_reported": "completion_reported",
	"well_completion":  "well_completion",
	"well_record":      "well_record",
	"production_reported": "production_reported",
	"production":       "production_reported",
	"plugging_report":  "plugging_report",
	"p_and_a":          "plugging_report",
}

// numericFields are coerced to float64 (or left null on failure) in the
// canonical payload.
var numericFields = []string{
	"depth_proposed", "td_reached", "ip_boed", "lateral_length_ft",
	"proppant_lbs", "frac_stages", "oil_bbl", "gas_mcf", "water_bbl",
	"latitude", "longitude",
}

// NormalizeType resolves a raw upstream type string to its canonical form,
// falling back to the lowercased raw value when no alias matches.
func NormalizeType(raw any) string {
	key := canonical.NormalizeKey(raw)
	if v, ok := typeAliases[key]; ok {
		return v
	}
	return key
}

// NormalizeAPI strips separators from a Texas API well number so
// "42-301-00001" and "4230100001" compare equal as lineage input.
func NormalizeAPI(raw any) string {
	s := canonical.CleanString(raw)
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

// LineageID derives the grouping key for a Texas RRC record (spec §4.3
// item 5): "TX:{api}" when an API number is present, else
// "TX:permit:{permit_no}".
func LineageID(api, permitNo string) string {
	if api != "" {
		return "TX:" + api
	}
	return "TX:permit:" + permitNo
}

// CanonicalizePayload applies type aliasing, numeric coercion, the region
// stamp, API normalization, the lineage formula, and resolver lookup to a
// copy of raw, returning the new canonical payload; raw is left unchanged.
func CanonicalizePayload(u universe.Universe, raw map[string]any) map[string]any {
	payload := make(map[string]any, len(raw)+2)
	for k, v := range raw {
		payload[k] = v
	}

	payload["type"] = NormalizeType(raw["type"])
	payload["region"] = "Texas"

	for _, f := range numericFields {
		if v, present := raw[f]; present {
			if f64, ok := canonical.AsFloat(v); ok {
				payload[f] = f64
			} else {
				payload[f] = nil
			}
		}
	}

	api := NormalizeAPI(raw["api"])
	permitNo := canonical.CleanString(raw["permit_no"])
	if api != "" {
		payload["api"] = api
	}
	payload["lineage_id"] = LineageID(api, permitNo)

	canonical.ResolveInto(u, payload)
	return payload
}

// BuildSourceEventID derives source_event_id: the explicit upstream id when
// present, else "{api}|{type}".
func BuildSourceEventID(explicit, api, eventType string) string {
	if explicit != "" {
		return explicit
	}
	return api + "|" + eventType
}

// IterFixture decodes a JSON-lines fixture into canonicalized payloads
// ready for insertion.
func IterFixture(u universe.Universe, r io.Reader) []map[string]any {
	records := canonical.ReadFixture(r)
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		payload := CanonicalizePayload(u, rec.PayloadJSON)
		out = append(out, payload)
	}
	return out
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
		api, _ := payload["api"].(string)
		sourceEventID := BuildSourceEventID(rec.SourceEventID, api, eventType)

		var eventTime = canonical.EventTimeFromFixture(rec, payload)

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
