package observability

import (
	"testing"
	"time"

	"github.com/fieldsignal/convergence/pkg/chain"
	"github.com/fieldsignal/convergence/pkg/convergence"
	"github.com/fieldsignal/convergence/pkg/event"
)

func companyIDPtr(s string) *string { return &s }

func TestBuild_SourceHealthNullFieldRate(t *testing.T) {
	now := time.Now()
	events := []event.RawEvent{
		{SourceSystem: "tx_rrc", EventTime: &now, PayloadJSON: map[string]any{"lineage_id": "L1", "company_id": "C1"}},
		{SourceSystem: "tx_rrc", PayloadJSON: map[string]any{"lineage_id": "L2"}},
	}
	snap := Build("run-1", events, nil, nil)
	if len(snap.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(snap.Sources))
	}
	if snap.Sources[0].EventCount != 2 {
		t.Errorf("expected event count 2, got %d", snap.Sources[0].EventCount)
	}
	if snap.Sources[0].NullFieldRate != 0.5 {
		t.Errorf("expected null field rate 0.5, got %v", snap.Sources[0].NullFieldRate)
	}
}

func TestBuild_ChainAggregates(t *testing.T) {
	rows := []convergence.Result{
		{Row: chain.Row{Score: 0.9, HasInsiderBuy: true, CompanyID: "C1"}, ConvergenceScore: 2},
		{Row: chain.Row{Score: 0.3}, ConvergenceScore: 4},
	}
	snap := Build("run-1", nil, rows, nil)
	if snap.Chain.TotalLineages != 2 {
		t.Errorf("expected 2 lineages, got %d", snap.Chain.TotalLineages)
	}
	if snap.Chain.HighScoreCount != 1 {
		t.Errorf("expected 1 high-score row, got %d", snap.Chain.HighScoreCount)
	}
	if snap.Chain.InsiderCount != 1 {
		t.Errorf("expected 1 insider row, got %d", snap.Chain.InsiderCount)
	}
	if snap.Chain.ConvergenceWatchCount != 1 {
		t.Errorf("expected 1 convergence-watch row (==2), got %d", snap.Chain.ConvergenceWatchCount)
	}
	if snap.Chain.ConvergenceStrongCount != 1 {
		t.Errorf("expected 1 convergence-strong row (>=3), got %d", snap.Chain.ConvergenceStrongCount)
	}
	if snap.Chain.CompanyResolutionRate != 0.5 {
		t.Errorf("expected resolution rate 0.5, got %v", snap.Chain.CompanyResolutionRate)
	}
	if snap.Chain.MeanScore != 0.6 {
		t.Errorf("expected mean score 0.6, got %v", snap.Chain.MeanScore)
	}
}

func TestBuild_AlertAggregates(t *testing.T) {
	alerts := []event.Alert{
		{Tier: event.TierHigh, CompanyID: companyIDPtr("C1"), ScoreSummary: map[string]any{"score": 0.9, "convergence_score": 3}},
		{Tier: event.TierLow, ScoreSummary: map[string]any{"score": 0.3, "convergence_score": 1}},
	}
	snap := Build("run-1", nil, nil, alerts)
	if snap.Alerts.Total != 2 {
		t.Errorf("expected 2 alerts, got %d", snap.Alerts.Total)
	}
	if snap.Alerts.TierHistogram[event.TierHigh] != 1 || snap.Alerts.TierHistogram[event.TierLow] != 1 {
		t.Errorf("unexpected tier histogram: %+v", snap.Alerts.TierHistogram)
	}
	if snap.Alerts.ConvergenceStrongCount != 1 {
		t.Errorf("expected 1 strongly-converged alert, got %d", snap.Alerts.ConvergenceStrongCount)
	}
	if snap.Alerts.CompanyResolutionRate != 0.5 {
		t.Errorf("expected resolution rate 0.5, got %v", snap.Alerts.CompanyResolutionRate)
	}
}

func TestBuild_EmptyInputsYieldZeroedAggregates(t *testing.T) {
	snap := Build("run-1", nil, nil, nil)
	if snap.Chain.TotalLineages != 0 || snap.Alerts.Total != 0 {
		t.Errorf("expected zeroed aggregates for empty input, got %+v", snap)
	}
}
