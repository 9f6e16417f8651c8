// Package convergence counts how many independent evidence categories
// (permits/claims, drilling, resource studies, financing, insider
// activity, policy) are active for a lineage or company within a rolling
// window, reinforcing chain rows without merging events across sources
// (spec §4.7).
package convergence

import (
	"sort"
	"strings"
	"time"

	"github.com/fieldsignal/convergence/pkg/chain"
	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/universe"
)

// DefaultWindow is the rolling window convergence is evaluated over absent
// an explicit override.
const DefaultWindow = 30 * 24 * time.Hour

var categoryATypes = set("lease_grant", "permit_filed", "permit_issued", "drilling_permit", "claims_staked", "exploration_permit")
var categoryBTypes = set("drill_result", "drill_assay", "completion_reported", "well_completion", "well_record")
var categoryCTypes = set("resource_estimate", "pea_published", "pfs_published", "feasibility_study", "pea_study", "pfs_study", "fs_study", "resource_upgrade")
var categoryDTypes = set("financing_closed", "financing_announced", "offtake_agreement", "jv_agreement", "acquisition")
var categoryETypes = set("insider_buy", "institutional_13g", "institutional_13f")
var categoryFTypes = set("policy_designation", "policy_final_rule", "policy_nprm_open", "policy_comment_deadline", "congressional_trade_disclosure", "legislation_committee_advance")

var categoryFFuzzyKeywords = []string{"policy", "macro", "rule", "nprm", "congress", "legislation", "committee"}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}

// Result enriches a chain.Row with convergence metadata.
type Result struct {
	chain.Row
	ConvergenceScore      int
	ConvergenceCategories []string
}

type signalPoint struct {
	t        time.Time
	category string
}

// eventCategories maps a canonical event type to the set of categories it
// contributes to (spec §4.7): a type outside every set contributes to
// none, except category F's fuzzy substring fallback.
func eventCategories(eventType string) map[string]bool {
	t := strings.ToLower(strings.TrimSpace(eventType))
	if t == "" {
		return nil
	}
	cats := make(map[string]bool)
	if categoryATypes[t] {
		cats["A"] = true
	}
	if categoryBTypes[t] {
		cats["B"] = true
	}
	if categoryCTypes[t] {
		cats["C"] = true
	}
	if categoryDTypes[t] {
		cats["D"] = true
	}
	if categoryETypes[t] {
		cats["E"] = true
	}
	if categoryFTypes[t] {
		cats["F"] = true
	} else {
		for _, kw := range categoryFFuzzyKeywords {
			if strings.Contains(t, kw) {
				cats["F"] = true
				break
			}
		}
	}
	return cats
}

// companyKeys builds the company_id:/company_name: keys a payload
// contributes, trying company_id first, then normalized company, then
// normalized operator.
func companyKeys(companyID, company, operator string) []string {
	var keys []string
	if strings.TrimSpace(companyID) != "" {
		keys = append(keys, "company_id:"+strings.TrimSpace(companyID))
	}
	name := universe.Normalize(company)
	if name == "" {
		name = universe.Normalize(operator)
	}
	if name != "" {
		keys = append(keys, "company_name:"+name)
	}
	return keys
}

func eventKeys(payload map[string]any) []string {
	var keys []string
	if lineageID := stringField(payload, "lineage_id"); lineageID != "" {
		keys = append(keys, "lineage:"+lineageID)
	}
	keys = append(keys, companyKeys(stringField(payload, "company_id"), stringField(payload, "company"), stringField(payload, "operator"))...)
	return keys
}

func rowKeys(row chain.Row) []string {
	var keys []string
	if row.LineageID != "" {
		keys = append(keys, "lineage:"+row.LineageID)
	}
	keys = append(keys, companyKeys(row.CompanyID, row.Company, row.Operator)...)
	return keys
}

// signalIndex is the per-key (time, category) list plus the latest time
// seen for that key, built once per Apply call over the full event set.
type signalIndex struct {
	byKey    map[string][]signalPoint
	latest   map[string]time.Time
}

func buildSignalIndex(events []event.RawEvent) signalIndex {
	idx := signalIndex{byKey: make(map[string][]signalPoint), latest: make(map[string]time.Time)}
	for _, ev := range events {
		dt := eventTime(ev)
		if dt == nil {
			continue
		}
		cats := eventCategories(stringField(ev.PayloadJSON, "type"))
		if len(cats) == 0 {
			continue
		}
		keys := eventKeys(ev.PayloadJSON)
		if len(keys) == 0 {
			continue
		}
		for _, key := range keys {
			for cat := range cats {
				idx.byKey[key] = append(idx.byKey[key], signalPoint{t: *dt, category: cat})
			}
			if existing, ok := idx.latest[key]; !ok || dt.After(existing) {
				idx.latest[key] = *dt
			}
		}
	}
	return idx
}

// eventTime falls back to ingest_time when event_time is absent, matching
// the original signal-index construction.
func eventTime(ev event.RawEvent) *time.Time {
	if ev.EventTime != nil {
		return ev.EventTime
	}
	if !ev.IngestTime.IsZero() {
		t := ev.IngestTime
		return &t
	}
	return nil
}

func categoriesWithinWindow(points []signalPoint, start, end time.Time) map[string]bool {
	cats := make(map[string]bool)
	for _, p := range points {
		if !p.t.Before(start) && !p.t.After(end) {
			cats[p.category] = true
		}
	}
	return cats
}

// Apply enriches rows with convergence metadata computed over the full
// event set, using window as the lookback (DefaultWindow when zero).
func Apply(rows []chain.Row, events []event.RawEvent, window time.Duration) []Result {
	if window <= 0 {
		window = DefaultWindow
	}
	idx := buildSignalIndex(events)
	out := make([]Result, 0, len(rows))

	for _, row := range rows {
		keys := rowKeys(row)

		var anchor *time.Time
		if row.LastEventTime != nil {
			t := *row.LastEventTime
			anchor = &t
		}
		for _, k := range keys {
			if candidate, ok := idx.latest[k]; ok {
				if anchor == nil || candidate.After(*anchor) {
					c := candidate
					anchor = &c
				}
			}
		}

		if anchor == nil {
			out = append(out, Result{Row: row, ConvergenceScore: 0, ConvergenceCategories: nil})
			continue
		}

		windowStart := anchor.Add(-window)
		cats := make(map[string]bool)
		for _, k := range keys {
			for cat := range categoriesWithinWindow(idx.byKey[k], windowStart, *anchor) {
				cats[cat] = true
			}
		}

		labels := make([]string, 0, len(cats))
		for c := range cats {
			labels = append(labels, c)
		}
		sort.Strings(labels)

		out = append(out, Result{Row: row, ConvergenceScore: len(labels), ConvergenceCategories: labels})
	}
	return out
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
