package ranker

import (
	"testing"
	"time"

	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/universe"
)

func companyIDPtr(s string) *string { return &s }

func TestRank_RecencyBoostTiers(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-1 * time.Hour)
	stale := now.Add(-72 * time.Hour)

	alerts := []event.Alert{
		{Summary: "recent", Tier: event.TierLow, EventTime: &recent, ScoreSummary: map[string]any{}},
		{Summary: "stale", Tier: event.TierLow, EventTime: &stale, ScoreSummary: map[string]any{}},
	}
	out := Rank(alerts, universe.Universe{}, now, 10)
	if len(out) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(out))
	}
	if out[0].Summary != "recent" {
		t.Errorf("expected recent alert ranked first, got %+v", out)
	}
}

func TestRank_DedupsBySummaryCompanyTier(t *testing.T) {
	alerts := []event.Alert{
		{Summary: "dup", Tier: event.TierHigh, CompanyID: companyIDPtr("C1"), ScoreSummary: map[string]any{}},
		{Summary: "dup", Tier: event.TierHigh, CompanyID: companyIDPtr("C1"), ScoreSummary: map[string]any{}},
		{Summary: "dup", Tier: event.TierLow, CompanyID: companyIDPtr("C1"), ScoreSummary: map[string]any{}},
	}
	out := Rank(alerts, universe.Universe{}, time.Now(), 10)
	if len(out) != 2 {
		t.Errorf("expected dedup to collapse identical (summary,company,tier) triples, got %d", len(out))
	}
}

func TestRank_AttachesTickersViaCompanyID(t *testing.T) {
	u := universe.Universe{Companies: []universe.Company{
		{CompanyID: "C1", Name: "Acme", Tickers: []string{"ACME"}},
	}}
	alerts := []event.Alert{{Summary: "s", Tier: event.TierHigh, CompanyID: companyIDPtr("C1"), ScoreSummary: map[string]any{}}}
	out := Rank(alerts, u, time.Now(), 10)
	if len(out[0].Tickers) != 1 || out[0].Tickers[0] != "ACME" {
		t.Errorf("expected ticker ACME attached, got %v", out[0].Tickers)
	}
}

func TestRank_SingleCompanyFallbackWhenAlertHasNone(t *testing.T) {
	u := universe.Universe{Companies: []universe.Company{
		{CompanyID: "C1", Name: "Acme", Tickers: []string{"ACME"}},
	}}
	alerts := []event.Alert{{Summary: "s", Tier: event.TierHigh, ScoreSummary: map[string]any{}}}
	out := Rank(alerts, u, time.Now(), 10)
	if out[0].CompanyID != "C1" {
		t.Errorf("expected single-company fallback to attach C1, got %q", out[0].CompanyID)
	}
}

func TestRank_TruncatesToTopN(t *testing.T) {
	alerts := []event.Alert{
		{Summary: "a", Tier: event.TierHigh, ScoreSummary: map[string]any{}},
		{Summary: "b", Tier: event.TierMedium, ScoreSummary: map[string]any{}},
		{Summary: "c", Tier: event.TierLow, ScoreSummary: map[string]any{}},
	}
	out := Rank(alerts, universe.Universe{}, time.Now(), 2)
	if len(out) != 2 {
		t.Errorf("expected truncation to 2, got %d", len(out))
	}
}

func TestRank_UsesChainScoreWhenHigherThanTierWeight(t *testing.T) {
	alerts := []event.Alert{
		{Summary: "s", Tier: event.TierLow, ScoreSummary: map[string]any{"score": 0.95}},
	}
	out := Rank(alerts, universe.Universe{}, time.Now(), 10)
	if out[0].Score < 0.95 {
		t.Errorf("expected chain score to dominate tier weight, got %v", out[0].Score)
	}
}
