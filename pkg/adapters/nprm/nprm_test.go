package nprm

import (
	"context"
	"strings"
	"testing"

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

func TestLineageID_PrefersDocketOverBill(t *testing.T) {
	withDocket := LineageID("", "Acme", "DOCKET-1", "HR-99")
	withBillOnly := LineageID("", "Acme", "", "HR-99")
	if withDocket == withBillOnly {
		t.Errorf("expected docket and bill fallbacks to diverge")
	}
}

func TestIngestFixture_LegislatorDisambiguatesSourceEventID(t *testing.T) {
	u := universe.Universe{}
	repo := &fakeRepo{}
	fixture := strings.NewReader(
		`{"payload_json": {"type": "congressional_trade", "company": "Acme", "legislator": "Rep. A"}}` + "\n" +
			`{"payload_json": {"type": "congressional_trade", "company": "Acme", "legislator": "Rep. B"}}` + "\n",
	)
	result, err := IngestFixture(context.Background(), u, repo, fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 2 || result.Inserted != 2 {
		t.Errorf("expected both distinct-legislator records inserted, got %+v", result)
	}
	if len(repo.events) != 2 || repo.events[0].SourceEventID == nil || repo.events[1].SourceEventID == nil ||
		*repo.events[0].SourceEventID == *repo.events[1].SourceEventID {
		t.Errorf("expected distinct source_event_ids for distinct legislators, got %+v", repo.events)
	}
}
