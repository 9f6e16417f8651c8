// Package fedregister canonicalizes Federal Register final-rule
// publications into RawEvents.
package fedregister

import (
	"context"
	"io"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/universe"
)

// SourceSystem is the source_system tag stamped on every event this
// adapter produces.
const SourceSystem = "federal_register_rules"

var typeAliases = map[string]string{
	"final_rule":        "policy_final_rule",
	"rule_finalized":     "policy_final_rule",
	"policy_final_rule":  "policy_final_rule",
}

var impactAliases = map[string]string{
	"positive": "favorable",
	"favorable": "favorable",
	"negative": "adverse",
	"adverse":  "adverse",
	"neutral":  "neutral",
	"mixed":    "mixed",
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

// NormalizeImpact resolves a raw impact-direction string through the alias
// table, falling back to the lowercased raw value.
func NormalizeImpact(raw any) string {
	key := canonical.NormalizeKey(raw)
	if v, ok := impactAliases[key]; ok {
		return v
	}
	return key
}

// LineageID derives the grouping key for a Federal Register record (spec
// §4.3 item 5): "POLICY:{company_id}" when the resolver already bound an
// identity, else a 16-hex hash of the lowercased company/docket pair.
func LineageID(companyID, company, docketID string) string {
	if companyID != "" {
		return "POLICY:" + companyID
	}
	seed := canonical.NormalizeKey(company) + "|" + canonical.NormalizeKey(docketID)
	return "POLICY:" + canonical.HexSeed(seed, 16)
}

// CanonicalizePayload applies type aliasing, impact normalization, the
// lineage formula, and resolver lookup.
func CanonicalizePayload(u universe.Universe, raw map[string]any) map[string]any {
	payload := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		payload[k] = v
	}

	payload["type"] = NormalizeType(raw["type"])
	if _, ok := raw["impact_direction"]; ok {
		payload["impact_direction"] = NormalizeImpact(raw["impact_direction"])
	}

	resolved := canonical.ResolveInto(u, payload)
	companyID := resolved.CompanyID
	if companyID == "" {
		companyID = canonical.CleanString(payload["company_id"])
	}
	company := canonical.CleanString(raw["company"])
	docketID := canonical.CleanString(raw["docket_id"])
	payload["lineage_id"] = LineageID(companyID, company, docketID)

	return payload
}

// IngestFixture reads a JSON-lines fixture and inserts every record,
// returning (processed, inserted) per spec §7. event_time falls back from
// the fixture's own field to payload_json.publication_date, then
// payload_json.effective_date.
func IngestFixture(ctx context.Context, u universe.Universe, repo canonical.Repo, r io.Reader) (canonical.BatchResult, error) {
	records := canonical.ReadFixture(r)
	result := canonical.BatchResult{}

	for _, rec := range records {
		payload := CanonicalizePayload(u, rec.PayloadJSON)
		result.Processed++

		docNumber := canonical.CleanString(payload["document_number"])
		sourceEventID := canonical.SourceEventID(rec.SourceEventID, "fed_register", docNumber)

		eventTime := canonical.EventTimeFromFixture(rec, payload)
		if eventTime == nil {
			eventTime = canonical.EventTimeFromFields(payload, "publication_date", "effective_date")
		}

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
