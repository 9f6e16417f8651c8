// Package reeuranium canonicalizes rare-earth-element and uranium project
// lifecycle records (claims, drilling, resource estimates, studies, deals,
// and policy designations) into RawEvents.
package reeuranium

import (
	"context"
	"io"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/universe"
)

// SourceSystem is the source_system tag stamped on every event this
// adapter produces.
const SourceSystem = "ree_uranium"

// validTypes is the full REE/U lifecycle vocabulary: claims through
// financing/policy. Types outside this set still pass through (unknown
// types are preserved, not rejected — spec §4.3 preserves unknown fields
// and the same leniency applies to unrecognized type strings).
var validTypes = map[string]bool{
	"claims_staked":        true,
	"exploration_permit":   true,
	"drill_assay":          true,
	"resource_estimate":    true,
	"resource_upgrade":     true,
	"pea_study":            true,
	"pfs_study":            true,
	"fs_study":             true,
	"offtake_agreement":    true,
	"financing_closed":     true,
	"jv_agreement":         true,
	"acquisition":          true,
	"policy_designation":   true,
	"export_restriction":   true,
}

var typeAliases = map[string]string{
	"claim_staked":     "claims_staked",
	"claims_filed":     "claims_staked",
	"permit_exploration": "exploration_permit",
	"assay_result":     "drill_assay",
	"resource_report":  "resource_estimate",
	"pea":              "pea_study",
	"pfs":              "pfs_study",
	"feasibility_study": "fs_study",
	"offtake":          "offtake_agreement",
	"financing":        "financing_closed",
	"jv":               "jv_agreement",
	"m_and_a":          "acquisition",
	"policy":           "policy_designation",
	"export_control":   "export_restriction",
}

// numericFields mirrors the 26-field set used in practice — wider than the
// abbreviated list in the external interface summary, since every numeric
// project-economics field upstream ever reports gets coerced the same way.
var numericFields = []string{
	"treo_pct", "mreo_pct", "u3o8_ppm", "u3o8_pct", "tonnage_mt", "grade_pct",
	"npv_8_musd", "npv_10_musd", "irr_pct", "capex_musd", "opex_musd_per_yr",
	"amount_cad", "amount_usd", "quantity_mlbs", "quantity_tonnes",
	"resource_moz", "reserve_moz", "strip_ratio", "recovery_pct",
	"mine_life_yrs", "payback_yrs", "price_usd_per_lb", "price_usd_per_kg",
	"latitude", "longitude", "depth_m",
}

var commodityAliases = map[string]string{
	"ree":                 "REE",
	"rare earths":         "REE",
	"rare earth":          "REE",
	"rare earth elements": "REE",
	"uranium":             "uranium",
	"u3o8":                "uranium",
	"u":                   "uranium",
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

// NormalizeCommodity maps free-text commodity spellings to the canonical
// "REE"/"uranium" vocabulary, passing through unrecognized values
// lowercased.
func NormalizeCommodity(raw any) string {
	key := canonical.NormalizeKey(raw)
	if v, ok := commodityAliases[key]; ok {
		return v
	}
	return key
}

// LineageID derives the grouping key for a REE/U record (spec §4.3 item 5):
// 20-hex SHA-256 of "REE_U|{company}|{project}", or for policy events
// "REE_U|policy|{policy}|{commodity}".
func LineageID(eventType, company, project, policy, commodity string) string {
	if eventType == "policy_designation" || eventType == "export_restriction" {
		seed := "REE_U|policy|" + policy + "|" + commodity
		return canonical.HexSeed(seed, 20)
	}
	seed := "REE_U|" + company + "|" + project
	return canonical.HexSeed(seed, 20)
}

// CanonicalizePayload applies type aliasing, commodity normalization,
// numeric coercion, the lineage formula, and resolver lookup.
func CanonicalizePayload(u universe.Universe, raw map[string]any) map[string]any {
	payload := make(map[string]any, len(raw)+2)
	for k, v := range raw {
		payload[k] = v
	}

	eventType := NormalizeType(raw["type"])
	payload["type"] = eventType
	if _, ok := raw["commodity"]; ok {
		payload["commodity"] = NormalizeCommodity(raw["commodity"])
	}

	for _, f := range numericFields {
		if v, present := raw[f]; present {
			if f64, ok := canonical.AsFloat(v); ok {
				payload[f] = f64
			} else {
				payload[f] = nil
			}
		}
	}

	company := canonical.CleanString(raw["company"])
	project := canonical.CleanString(raw["project"])
	policy := canonical.CleanString(raw["policy"])
	commodity := canonical.CleanString(payload["commodity"])
	payload["lineage_id"] = LineageID(eventType, company, project, policy, commodity)

	payload["type_recognized"] = validTypes[eventType]
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
		sourceEventID := canonical.SourceEventID(rec.SourceEventID, "ree_u", lineageID+"|"+eventType)

		eventTime := canonical.EventTimeFromFixtureWithExtra(rec, payload, "02-Jan-2006")

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
