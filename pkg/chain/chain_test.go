package chain

import (
	"testing"
	"time"

	"github.com/fieldsignal/convergence/pkg/event"
)

func evt(lineageID, eventType string, extra map[string]any, t time.Time) event.RawEvent {
	payload := map[string]any{"lineage_id": lineageID, "type": eventType}
	for k, v := range extra {
		payload[k] = v
	}
	tt := t
	return event.RawEvent{PayloadJSON: payload, EventTime: &tt}
}

func TestAggregate_TexasFullProgressionScoresOne(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []event.RawEvent{
		evt("TX:42-301-00001", "permit_filed", map[string]any{"region": "Texas"}, base),
		evt("TX:42-301-00001", "spud_reported", map[string]any{"region": "Texas"}, base.AddDate(0, 0, 10)),
		evt("TX:42-301-00001", "well_completion", map[string]any{"region": "Texas"}, base.AddDate(0, 0, 40)),
		evt("TX:42-301-00001", "production_reported", map[string]any{"region": "Texas"}, base.AddDate(0, 0, 70)),
	}
	rows := Aggregate(events)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if !row.HasPermit || !row.HasSpud || !row.HasWell || !row.HasProduction {
		t.Errorf("expected all TX stage flags true, got %+v", row)
	}
	if row.Score != 1.0 {
		t.Errorf("expected score=1.0, got %v", row.Score)
	}
}

func TestAggregate_InsiderClusterBonus(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []event.RawEvent{
		evt("SEC:PERMIAN_RESOURCES", "insider_buy", map[string]any{"filer_name": "Dana Morgan"}, base),
		evt("SEC:PERMIAN_RESOURCES", "insider_buy", map[string]any{"filer_name": "Ryan Cole"}, base.AddDate(0, 0, 14)),
	}
	rows := Aggregate(events)
	row := rows[0]
	if !row.HasInsiderBuy || !row.HasInsiderBuyCluster {
		t.Errorf("expected cluster bonus flags set, got %+v", row)
	}
	if row.Score != 0.25 {
		t.Errorf("expected score=0.25, got %v", row.Score)
	}
}

func TestAggregate_NoClusterWhenSingleFiler(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []event.RawEvent{
		evt("SEC:ONLY_ONE", "insider_buy", map[string]any{"filer_name": "Dana Morgan"}, base),
		evt("SEC:ONLY_ONE", "insider_buy", map[string]any{"filer_name": "Dana Morgan"}, base.AddDate(0, 0, 10)),
	}
	rows := Aggregate(events)
	row := rows[0]
	if row.HasInsiderBuyCluster {
		t.Errorf("expected no cluster bonus for a single filer, got %+v", row)
	}
	if row.Score != 0.15 {
		t.Errorf("expected score=0.15, got %v", row.Score)
	}
}

func TestAggregate_DiscardsEventsWithoutLineage(t *testing.T) {
	events := []event.RawEvent{
		{PayloadJSON: map[string]any{"type": "permit_filed"}},
	}
	rows := Aggregate(events)
	if len(rows) != 0 {
		t.Errorf("expected events without lineage_id to be discarded, got %d rows", len(rows))
	}
}

func TestAggregate_SortedDescendingByScore(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []event.RawEvent{
		evt("LOW", "permit_filed", nil, base),
		evt("HIGH", "permit_filed", map[string]any{"region": "Texas"}, base),
		evt("HIGH", "spud_reported", map[string]any{"region": "Texas"}, base),
		evt("HIGH", "well_completion", map[string]any{"region": "Texas"}, base),
	}
	rows := Aggregate(events)
	if rows[0].LineageID != "HIGH" {
		t.Errorf("expected higher-scoring lineage first, got %+v", rows)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Score < rows[i].Score {
			t.Errorf("rows not sorted descending: %+v", rows)
		}
	}
}
