// Package nprm canonicalizes NPRM/congressional records — proposed rules,
// comment-period deadlines, congressional trade disclosures, and
// committee-stage legislation — into RawEvents.
package nprm

import (
	"context"
	"io"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/universe"
)

// SourceSystem is the source_system tag stamped on every event this
// adapter produces.
const SourceSystem = "nprm_congressional"

// validTypes is the full recognized vocabulary for this source.
var validTypes = map[string]bool{
	"policy_nprm_open":              true,
	"policy_comment_deadline":       true,
	"congressional_trade_disclosure": true,
	"legislation_committee_advance": true,
}

var typeAliases = map[string]string{
	"nprm_open":          "policy_nprm_open",
	"nprm_published":     "policy_nprm_open",
	"comment_deadline":   "policy_comment_deadline",
	"congressional_trade": "congressional_trade_disclosure",
	"trade_disclosure":   "congressional_trade_disclosure",
	"committee_advance":  "legislation_committee_advance",
	"committee_markup":   "legislation_committee_advance",
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

// LineageID derives the grouping key for an NPRM/congressional record
// (spec §4.3 item 5): "POLICY:{company_id}" when resolved, else a 16-hex
// hash over whichever of company/docket_id/bill_id are present, in that
// order of preference.
func LineageID(companyID, company, docketID, billID string) string {
	if companyID != "" {
		return "POLICY:" + companyID
	}
	seed := canonical.NormalizeKey(company)
	switch {
	case docketID != "":
		seed += "|" + canonical.NormalizeKey(docketID)
	case billID != "":
		seed += "|" + canonical.NormalizeKey(billID)
	}
	return "POLICY:" + canonical.HexSeed(seed, 16)
}

// CanonicalizePayload applies type aliasing, the lineage formula, and
// resolver lookup.
func CanonicalizePayload(u universe.Universe, raw map[string]any) map[string]any {
	payload := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		payload[k] = v
	}

	payload["type"] = NormalizeType(raw["type"])

	resolved := canonical.ResolveInto(u, payload)
	companyID := resolved.CompanyID
	if companyID == "" {
		companyID = canonical.CleanString(payload["company_id"])
	}
	company := canonical.CleanString(raw["company"])
	docketID := canonical.CleanString(raw["docket_id"])
	billID := canonical.CleanString(raw["bill_id"])
	payload["lineage_id"] = LineageID(companyID, company, docketID, billID)

	_ = validTypes
	return payload
}

// IngestFixture reads a JSON-lines fixture and inserts every record,
// returning (processed, inserted) per spec §7. The source_event_id seed
// includes the legislator field, since a single committee action can
// otherwise collide across disclosures filed the same day.
func IngestFixture(ctx context.Context, u universe.Universe, repo canonical.Repo, r io.Reader) (canonical.BatchResult, error) {
	records := canonical.ReadFixture(r)
	result := canonical.BatchResult{}

	for _, rec := range records {
		payload := CanonicalizePayload(u, rec.PayloadJSON)
		result.Processed++

		eventType, _ := payload["type"].(string)
		lineageID, _ := payload["lineage_id"].(string)
		legislator := canonical.CleanString(payload["legislator"])
		seed := lineageID + "|" + eventType + "|" + legislator
		sourceEventID := canonical.SourceEventID(rec.SourceEventID, "nprm", seed)

		eventTime := canonical.EventTimeFromFixture(rec, payload)
		if eventTime == nil {
			eventTime = canonical.EventTimeFromFields(payload, "publication_date", "comment_deadline")
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
