package secedgar

import (
	"context"
	"strings"
	"testing"

	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/universe"
)

type fakeRepo struct{ n int64 }

func (f *fakeRepo) InsertRawEvent(ctx context.Context, ev event.RawEvent) (int64, bool, error) {
	f.n++
	return f.n, true, nil
}

func TestClassifyFormType(t *testing.T) {
	cases := map[string]string{
		"4":          "form4",
		"4/A":        "form4",
		"SC 13G":     "institutional_13g",
		"SC 13G/A":   "institutional_13g",
		"13F-HR":     "institutional_13f",
		"13F-HR/A":   "institutional_13f",
		"8-K":        "",
	}
	for in, want := range cases {
		if got := ClassifyFormType(in); got != want {
			t.Errorf("ClassifyFormType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeRelationship_KeywordPriority(t *testing.T) {
	if got := NormalizeRelationship("beneficial owner of 10% or more"); got != "10% owner" {
		t.Errorf("expected 10%% owner, got %q", got)
	}
	if got := NormalizeRelationship("Institutional investor"); got != "institution" {
		t.Errorf("expected institution, got %q", got)
	}
}

func TestLineageID_FallsBackToNameHash(t *testing.T) {
	withID := LineageID("C1", "Acme")
	if withID != "SEC:C1" {
		t.Errorf("expected SEC:C1, got %q", withID)
	}
	fallback := LineageID("", "Acme Resources Corp")
	if !strings.HasPrefix(fallback, "SEC:") || fallback == withID {
		t.Errorf("expected hashed fallback lineage id, got %q", fallback)
	}
}

func TestCanonicalizePayload_ComputesTotalValueWhenAbsent(t *testing.T) {
	u := universe.Universe{}
	raw := map[string]any{
		"type":            "buy",
		"company":         "Acme Resources",
		"shares":          "1000",
		"price_per_share": "12.5",
	}
	payload := CanonicalizePayload(u, raw)
	if payload["type"] != "insider_buy" {
		t.Errorf("expected insider_buy, got %v", payload["type"])
	}
	if payload["total_value"] != 12500.0 {
		t.Errorf("expected computed total_value=12500.0, got %v", payload["total_value"])
	}
}

func TestIngestFixture(t *testing.T) {
	u := universe.Universe{}
	repo := &fakeRepo{}
	fixture := strings.NewReader(
		`{"payload_json": {"type": "buy", "company": "Acme Resources", "filer_name": "Dana Morgan", "filing_accession": "0001-26-000001"}}` + "\n",
	)
	result, err := IngestFixture(context.Background(), u, repo, fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 || result.Inserted != 1 {
		t.Errorf("expected processed=1 inserted=1, got %+v", result)
	}
}
