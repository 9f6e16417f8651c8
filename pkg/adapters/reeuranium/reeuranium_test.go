package reeuranium

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/universe"
)

type fakeRepo struct {
	n      int64
	events []event.RawEvent
}

func (f *fakeRepo) InsertRawEvent(ctx context.Context, ev event.RawEvent) (int64, bool, error) {
	f.n++
	f.events = append(f.events, ev)
	return f.n, true, nil
}

func TestNormalizeCommodity(t *testing.T) {
	cases := map[string]string{
		"Rare Earth Elements": "REE",
		"ree":                 "REE",
		"U3O8":                "uranium",
		"Uranium":             "uranium",
	}
	for in, want := range cases {
		if got := NormalizeCommodity(in); got != want {
			t.Errorf("NormalizeCommodity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLineageID_PolicyVariant(t *testing.T) {
	got := LineageID("policy_designation", "", "", "critical-minerals-list", "REE")
	if len(got) != 20 {
		t.Errorf("expected 20-hex lineage id, got %q", got)
	}
	company := LineageID("drill_assay", "Acme Minerals", "Thor Lake", "", "REE")
	if got == company {
		t.Errorf("expected policy and company lineage ids to diverge")
	}
}

func TestCanonicalizePayload_NumericCoercion(t *testing.T) {
	u := universe.Universe{}
	raw := map[string]any{
		"type":       "pea",
		"company":    "Acme Minerals",
		"project":    "Thor Lake",
		"npv_8_musd": "412.6",
	}
	payload := CanonicalizePayload(u, raw)
	if payload["type"] != "pea_study" {
		t.Errorf("expected alias to pea_study, got %v", payload["type"])
	}
	if payload["npv_8_musd"] != 412.6 {
		t.Errorf("expected npv_8_musd coerced to float, got %v", payload["npv_8_musd"])
	}
}

func TestIngestFixture_DDMMMYYYYEventTime(t *testing.T) {
	u := universe.Universe{}
	repo := &fakeRepo{}
	fixture := strings.NewReader(
		`{"event_time": "15-Mar-2026", "payload_json": {"type": "drill_assay", "company": "Acme Minerals", "project": "Thor Lake"}}` + "\n",
	)
	result, err := IngestFixture(context.Background(), u, repo, fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 || result.Inserted != 1 {
		t.Errorf("expected processed=1 inserted=1, got %+v", result)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if len(repo.events) != 1 || repo.events[0].EventTime == nil || !repo.events[0].EventTime.Equal(want) {
		t.Errorf("expected event_time %v parsed from 15-Mar-2026, got %+v", want, repo.events)
	}
}
