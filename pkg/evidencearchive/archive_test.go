package evidencearchive

import (
	"context"
	"testing"
)

type memStore struct {
	blobs map[string][]byte
}

func newMemStore() *memStore { return &memStore{blobs: make(map[string][]byte)} }

func (m *memStore) Archive(ctx context.Context, alertID string, sealed []byte) error {
	m.blobs[alertID] = sealed
	return nil
}

func (m *memStore) Retrieve(ctx context.Context, alertID string) ([]byte, error) {
	return m.blobs[alertID], nil
}

func TestSealOpen_RoundTrip(t *testing.T) {
	plaintext := []byte(`{"alert_id":"abc"}`)
	sealed, err := Seal("passphrase", plaintext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opened, err := Open("passphrase", sealed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(opened) != string(plaintext) {
		t.Errorf("expected round-tripped plaintext to match, got %q", opened)
	}
}

func TestOpen_WrongPassphraseFails(t *testing.T) {
	sealed, _ := Seal("correct", []byte("secret"))
	if _, err := Open("wrong", sealed); err == nil {
		t.Errorf("expected an error opening with the wrong passphrase")
	}
}

func TestArchiveBundle_NilStoreIsNoOp(t *testing.T) {
	err := ArchiveBundle(context.Background(), nil, "pass", Bundle{AlertID: "a1"})
	if err != nil {
		t.Errorf("expected nil store to be a no-op, got %v", err)
	}
}

func TestArchiveBundle_RoundTripsThroughStore(t *testing.T) {
	store := newMemStore()
	bundle := Bundle{AlertID: "a1", CanonicalDocID: "doc1", Events: []map[string]any{{"type": "permit_filed"}}}
	if err := ArchiveBundle(context.Background(), store, "pass", bundle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := RetrieveBundle(context.Background(), store, "pass", "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CanonicalDocID != "doc1" || len(got.Events) != 1 {
		t.Errorf("expected round-tripped bundle to match, got %+v", got)
	}
}
