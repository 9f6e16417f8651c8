package alaskawells

import (
	"context"
	"strings"
	"testing"

	"github.com/fieldsignal/convergence/pkg/adapters/alaskapermits"
	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/universe"
)

type fakeRepo struct{ n int64 }

func (f *fakeRepo) InsertRawEvent(ctx context.Context, ev event.RawEvent) (int64, bool, error) {
	f.n++
	return f.n, true, nil
}

func TestLineageID_MatchesAlaskaPermitsFormula(t *testing.T) {
	got := LineageID("PERMIT-1", "Acme Oil", "Alaska")
	if len(got) != 20 {
		t.Errorf("expected 20-hex lineage id, got %q", got)
	}
	if want := alaskapermits.LineageID("PERMIT-1", "Acme Oil", "Alaska"); got != want {
		t.Errorf("expected lineage id identical to alaskapermits.LineageID %q, got %q", want, got)
	}
}

func TestIngestFixture(t *testing.T) {
	u := universe.Universe{}
	repo := &fakeRepo{}
	fixture := strings.NewReader(`{"payload_json": {"type": "spud", "permit_id": "AK-1", "operator": "Acme Oil"}}` + "\n")
	result, err := IngestFixture(context.Background(), u, repo, fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 || result.Inserted != 1 {
		t.Errorf("expected processed=1 inserted=1, got %+v", result)
	}
}
