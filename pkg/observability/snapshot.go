package observability

import (
	"math"

	"github.com/fieldsignal/convergence/pkg/convergence"
	"github.com/fieldsignal/convergence/pkg/event"
)

// SourceHealth is one adapter's ingest counters over the snapshot window.
type SourceHealth struct {
	SourceSystem string
	EventCount   int
	// NullFieldRate is the fraction of events from this source missing a
	// company_id, lineage_id, or event_time — fields every downstream stage
	// depends on — rounded to 2 decimals.
	NullFieldRate float64
}

// ChainAggregates summarizes the scored chain rows in the window (spec
// §4.10).
type ChainAggregates struct {
	TotalLineages          int
	MeanScore              float64
	HighScoreCount         int
	InsiderCount           int
	ConvergenceWatchCount  int
	ConvergenceStrongCount int
	CompanyResolutionRate  float64
}

// AlertAggregates summarizes the alerts emitted in the window (spec §4.10).
type AlertAggregates struct {
	Total                  int
	MeanScore               float64
	TierHistogram           map[event.Tier]int
	CompanyResolutionRate   float64
	ConvergenceStrongCount  int
}

// Snapshot is the full health readout for one observability pass.
type Snapshot struct {
	RunID   string
	Sources []SourceHealth
	Chain   ChainAggregates
	Alerts  AlertAggregates
}

func pct(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return round2(float64(numerator) / float64(denominator))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// hasNullCoreField reports whether a payload is missing company_id,
// lineage_id, or event_time.
func hasNullCoreField(ev event.RawEvent) bool {
	if ev.EventTime == nil {
		return true
	}
	if v, ok := ev.PayloadJSON["lineage_id"].(string); !ok || v == "" {
		return true
	}
	if v, ok := ev.PayloadJSON["company_id"].(string); !ok || v == "" {
		return true
	}
	return false
}

func sourceHealth(events []event.RawEvent) []SourceHealth {
	type counters struct {
		total int
		nulls int
	}
	bySource := make(map[string]*counters)
	var order []string
	for _, ev := range events {
		c, ok := bySource[ev.SourceSystem]
		if !ok {
			c = &counters{}
			bySource[ev.SourceSystem] = c
			order = append(order, ev.SourceSystem)
		}
		c.total++
		if hasNullCoreField(ev) {
			c.nulls++
		}
	}
	out := make([]SourceHealth, 0, len(order))
	for _, src := range order {
		c := bySource[src]
		out = append(out, SourceHealth{
			SourceSystem:  src,
			EventCount:    c.total,
			NullFieldRate: pct(c.nulls, c.total),
		})
	}
	return out
}

func chainAggregates(rows []convergence.Result) ChainAggregates {
	agg := ChainAggregates{TotalLineages: len(rows)}
	if len(rows) == 0 {
		return agg
	}
	var scoreSum float64
	resolved := 0
	for _, r := range rows {
		scoreSum += r.Score
		if r.Score >= 0.8 {
			agg.HighScoreCount++
		}
		if r.HasInsiderBuy {
			agg.InsiderCount++
		}
		if r.ConvergenceScore == 2 {
			agg.ConvergenceWatchCount++
		}
		if r.ConvergenceScore >= 3 {
			agg.ConvergenceStrongCount++
		}
		if r.CompanyID != "" {
			resolved++
		}
	}
	agg.MeanScore = round2(scoreSum / float64(len(rows)))
	agg.CompanyResolutionRate = pct(resolved, len(rows))
	return agg
}

func alertAggregates(alerts []event.Alert) AlertAggregates {
	agg := AlertAggregates{Total: len(alerts), TierHistogram: make(map[event.Tier]int)}
	if len(alerts) == 0 {
		return agg
	}
	var scoreSum float64
	resolved := 0
	for _, a := range alerts {
		if s, ok := a.ScoreSummary["score"].(float64); ok {
			scoreSum += s
		}
		agg.TierHistogram[a.Tier]++
		if a.CompanyID != nil && *a.CompanyID != "" {
			resolved++
		}
		if cs, ok := a.ScoreSummary["convergence_score"].(int); ok && cs >= 3 {
			agg.ConvergenceStrongCount++
		}
	}
	agg.MeanScore = round2(scoreSum / float64(len(alerts)))
	agg.CompanyResolutionRate = pct(resolved, len(alerts))
	return agg
}

// Build assembles the full health snapshot over the caller-selected event,
// chain-row, and alert windows (spec §4.10). runID tags the snapshot for
// log correlation only.
func Build(runID string, events []event.RawEvent, rows []convergence.Result, alerts []event.Alert) Snapshot {
	return Snapshot{
		RunID:   runID,
		Sources: sourceHealth(events),
		Chain:   chainAggregates(rows),
		Alerts:  alertAggregates(alerts),
	}
}
