// Package ranker turns recent alerts into a deduplicated, ticker-annotated
// opportunity list (spec §4.9): a blend of tier weight and chain score,
// boosted by recency, truncated to the caller's requested size.
package ranker

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/universe"
)

var tierWeight = map[event.Tier]float64{
	event.TierHigh:   1.0,
	event.TierMedium: 0.6,
	event.TierLow:    0.4,
	event.TierNone:   0.0,
}

// Opportunity is one ranked, deduplicated entry derived from an alert.
type Opportunity struct {
	Summary   string
	CompanyID string
	Tier      event.Tier
	Score     float64
	Tickers   []string
	// HumanSummary renders Score and recency in prose for display surfaces;
	// it never affects dedup or ordering, only log/UI rendering.
	HumanSummary string
}

func chainScore(a event.Alert) float64 {
	if s, ok := a.ScoreSummary["score"].(float64); ok {
		return s
	}
	return 0
}

// recencyBoost returns the boost for an alert's age relative to now (spec
// §4.9); a nil event_time contributes zero.
func recencyBoost(eventTime *time.Time, now time.Time) float64 {
	if eventTime == nil {
		return 0
	}
	age := now.Sub(*eventTime)
	switch {
	case age <= 6*time.Hour:
		return 0.25
	case age <= 24*time.Hour:
		return 0.10
	default:
		return 0.02
	}
}

// Rank scores, ticker-annotates, dedups, and truncates alerts to the top n
// (spec §4.9). alerts should already be restricted to the caller's window.
func Rank(alerts []event.Alert, u universe.Universe, now time.Time, n int) []Opportunity {
	type scored struct {
		Opportunity
		dedupKey string
	}

	var all []scored
	for _, a := range alerts {
		score := max(tierWeight[a.Tier], chainScore(a)) + recencyBoost(a.EventTime, now)

		companyID := ""
		if a.CompanyID != nil {
			companyID = *a.CompanyID
		}

		var tickers []string
		if companyID != "" {
			if c, ok := u.CompanyByID(companyID); ok {
				tickers = c.Tickers
			}
		} else if len(u.Companies) == 1 {
			companyID = u.Companies[0].CompanyID
			tickers = u.Companies[0].Tickers
		}

		human := fmt.Sprintf("%s (score %s)", a.Summary, humanize.FtoaWithDigits(score, 2))
		if a.EventTime != nil {
			human += fmt.Sprintf(", %s", humanize.Time(*a.EventTime))
		}

		all = append(all, scored{
			Opportunity: Opportunity{
				Summary: a.Summary, CompanyID: companyID, Tier: a.Tier,
				Score: score, Tickers: tickers, HumanSummary: human,
			},
			dedupKey: fmt.Sprintf("%s|%s|%s", a.Summary, companyID, a.Tier),
		})
	}

	seen := make(map[string]bool, len(all))
	deduped := make([]scored, 0, len(all))
	for _, s := range all {
		if seen[s.dedupKey] {
			continue
		}
		seen[s.dedupKey] = true
		deduped = append(deduped, s)
	}

	sort.SliceStable(deduped, func(i, j int) bool { return deduped[i].Score > deduped[j].Score })

	if n > 0 && len(deduped) > n {
		deduped = deduped[:n]
	}

	out := make([]Opportunity, len(deduped))
	for i, s := range deduped {
		out[i] = s.Opportunity
	}
	return out
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
