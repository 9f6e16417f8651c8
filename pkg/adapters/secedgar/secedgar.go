// Package secedgar canonicalizes SEC EDGAR insider-transaction and
// institutional-filing records into RawEvents, and drives the live
// ticker→CIK→submissions→filing pipeline for Form 4 ownership documents.
package secedgar

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/adapters/secedgar/form4"
	"github.com/fieldsignal/convergence/pkg/universe"
)

// SourceSystem is the source_system tag stamped on every event this
// adapter produces.
const SourceSystem = "sec_edgar"

var typeAliases = map[string]string{
	"buy":      "insider_buy",
	"purchase": "insider_buy",
	"sell":     "insider_sell",
	"sale":     "insider_sell",
	"exercise": "insider_option_exercise",
	"13g":      "institutional_13g",
	"13f":      "institutional_13f",
}

var txnTypeAliases = map[string]string{
	"buy":      "purchase",
	"purchase": "purchase",
	"sell":     "sale",
	"sale":     "sale",
	"exercise": "exercise",
}

// relationshipKeywords drives free-text relationship normalization: the
// first keyword that matches (checked in this order) wins.
var relationshipKeywords = []struct {
	keyword string
	value   string
}{
	{"10%", "10% owner"},
	{"ten percent", "10% owner"},
	{"director", "director"},
	{"officer", "officer"},
	{"institution", "institution"},
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

// NormalizeTransactionType resolves a raw transaction_type string through
// its alias table.
func NormalizeTransactionType(raw any) string {
	key := canonical.NormalizeKey(raw)
	if v, ok := txnTypeAliases[key]; ok {
		return v
	}
	return key
}

// NormalizeRelationship maps free-text relationship descriptions to the
// canonical officer/director/10% owner/institution vocabulary via keyword
// matching, falling back to the lowercased raw value.
func NormalizeRelationship(raw any) string {
	key := canonical.NormalizeKey(raw)
	for _, kw := range relationshipKeywords {
		if strings.Contains(key, kw.keyword) {
			return kw.value
		}
	}
	return key
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(raw any) string {
	return strings.ToUpper(canonical.CleanString(raw))
}

// ClassifyFormType maps an SEC form type string to a canonical event type:
// "4"/"4/A" → form4, "SC 13G"(/A) → institutional_13g, "13F-HR"(/A) →
// institutional_13f. Unrecognized form types return "".
func ClassifyFormType(formType string) string {
	key := strings.ToUpper(strings.TrimSpace(formType))
	switch {
	case key == "4" || key == "4/A":
		return "form4"
	case strings.HasPrefix(key, "SC 13G"):
		return "institutional_13g"
	case strings.HasPrefix(key, "13F-HR"):
		return "institutional_13f"
	default:
		return ""
	}
}

// LineageID derives the grouping key for a SEC record (spec §4.3 item 5):
// "SEC:{company_id}" when resolved, else "SEC:{sha16(norm(company))}".
func LineageID(companyID, company string) string {
	if companyID != "" {
		return "SEC:" + companyID
	}
	return "SEC:" + canonical.HexSeed(Normalize(company), 16)
}

// Normalize is re-exported from universe for adapters that need the exact
// same name-folding rule the resolver applies.
var Normalize = universe.Normalize

// CanonicalizePayload applies type aliasing, relationship/transaction-type
// normalization, numeric coercion, the lineage formula, and resolver
// lookup.
func CanonicalizePayload(u universe.Universe, raw map[string]any) map[string]any {
	payload := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		payload[k] = v
	}

	payload["type"] = NormalizeType(raw["type"])
	if _, ok := raw["relationship"]; ok {
		payload["relationship"] = NormalizeRelationship(raw["relationship"])
	}
	if _, ok := raw["transaction_type"]; ok {
		payload["transaction_type"] = NormalizeTransactionType(raw["transaction_type"])
	}
	if tickers, ok := raw["tickers"]; ok {
		in := canonical.StringSlice(tickers)
		out := make([]string, len(in))
		for i, t := range in {
			out[i] = NormalizeTicker(t)
		}
		payload["tickers"] = out
	}

	for _, f := range []string{"shares", "price_per_share", "total_value"} {
		if v, present := raw[f]; present {
			if f64, ok := canonical.AsFloat(v); ok {
				payload[f] = f64
			} else {
				payload[f] = nil
			}
		}
	}
	if shares, ok := canonical.AsFloat(payload["shares"]); ok {
		if price, ok2 := canonical.AsFloat(payload["price_per_share"]); ok2 {
			if _, hasTotal := raw["total_value"]; !hasTotal {
				payload["total_value"] = roundCents(shares * price)
			}
		}
	}

	resolved := canonical.ResolveInto(u, payload)
	companyID := resolved.CompanyID
	if companyID == "" {
		companyID = canonical.CleanString(payload["company_id"])
	}
	payload["lineage_id"] = LineageID(companyID, canonical.CleanString(raw["company"]))

	return payload
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// IngestFixture reads a JSON-lines fixture and inserts every record,
// returning (processed, inserted) per spec §7.
func IngestFixture(ctx context.Context, u universe.Universe, repo canonical.Repo, r io.Reader) (canonical.BatchResult, error) {
	records := canonical.ReadFixture(r)
	result := canonical.BatchResult{}

	for _, rec := range records {
		payload := CanonicalizePayload(u, rec.PayloadJSON)
		result.Processed++

		accession := canonical.CleanString(payload["filing_accession"])
		eventType, _ := payload["type"].(string)
		filer := canonical.CleanString(payload["filer_name"])
		seed := accession + "|" + eventType + "|" + filer
		sourceEventID := canonical.SourceEventID(rec.SourceEventID, "sec_edgar", seed)

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

// TransactionToPayload converts a parsed Form 4 transaction plus filing
// metadata into the canonical payload fields §6 names for SEC records.
func TransactionToPayload(txn form4.Transaction, cik, ticker, filingURL, accession string) map[string]any {
	payload := map[string]any{
		"type":             txn.EventType,
		"transaction_type": txn.TransactionType,
		"filer_name":       txn.ReporterName,
		"relationship":     txn.Relationship,
		"shares":           txn.TransactionShares,
		"price_per_share":  txn.TransactionPricePerShare,
		"form_type":        "4",
		"filing_accession": accession,
		"cik":              cik,
		"filing_url":       filingURL,
		"event_time":       txn.TransactionDate,
	}
	if txn.HasTotalValue {
		payload["total_value"] = txn.TotalValue
	}
	if ticker != "" {
		payload["tickers"] = []string{strings.ToUpper(ticker)}
	}
	return payload
}

// BuildFilingURL composes the primary document URL for a filing (spec §6).
func BuildFilingURL(cikInt int, accessionNoDashes, primaryDocument string) string {
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%d/%s/%s", cikInt, accessionNoDashes, primaryDocument)
}

// BuildFilingTextURL composes the full submission text URL for a filing
// (spec §6), used to retrieve the SGML-wrapped Form 4 XML.
func BuildFilingTextURL(cikInt int, accessionNoDashes, accession string) string {
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%d/%s/%s.txt", cikInt, accessionNoDashes, accession)
}
