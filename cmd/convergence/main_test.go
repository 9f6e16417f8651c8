package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, sourceSystem string, lines []string) {
	t.Helper()
	path := filepath.Join(dir, sourceSystem+".jsonl")
	if err := os.WriteFile(path, []byte(joinLines(lines)), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func TestRun_BatchPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()

	writeFixture(t, dir, "alaska_permits", []string{
		`{"source_event_id":"p1","event_time":"2026-01-01T00:00:00Z","payload_json":{"permit_id":"AK-1","operator":"Acme Oil","type":"permit_filed"}}`,
	})
	writeFixture(t, dir, "alaska_wells", []string{
		`{"source_event_id":"w1","event_time":"2026-01-05T00:00:00Z","payload_json":{"permit_id":"AK-1","operator":"Acme Oil","type":"well_completion"}}`,
	})

	universePath := filepath.Join(dir, "universe.yaml")
	universeYAML := "version: 1\ncompanies:\n  - company_id: acme\n    name: Acme Oil\n    tickers: [\"ACME\"]\n"
	if err := os.WriteFile(universePath, []byte(universeYAML), 0o644); err != nil {
		t.Fatalf("write universe: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := Run([]string{"convergence", "run", "--fixtures", dir, "--universe", universePath}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run exited %d, stderr: %s", code, stderr.String())
	}

	var report map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v, output: %s", err, stdout.String())
	}
	if report["events_processed"].(float64) < 2 {
		t.Errorf("expected at least 2 events processed, got %v", report["events_processed"])
	}
}

func TestRun_MissingRequiredFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"convergence", "run"}, &stdout, &stderr)
	if code != 2 {
		t.Errorf("expected exit code 2 for missing flags, got %d", code)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"convergence", "bogus"}, &stdout, &stderr)
	if code != 2 {
		t.Errorf("expected exit code 2 for unknown command, got %d", code)
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"convergence", "version"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("unexpected exit %d: %s", code, stderr.String())
	}
	if stdout.Len() == 0 {
		t.Errorf("expected version output")
	}
}
