package canonical

import "testing"

func TestParseDate_Cascade(t *testing.T) {
	cases := map[string]bool{
		"2026-07-30T12:00:00Z": true,
		"2026-07-30":           true,
		"07/30/2026":           true,
		"07-30-2026":           true,
		"not a date":           false,
	}
	for in, want := range cases {
		_, ok := ParseDate(in)
		if ok != want {
			t.Errorf("ParseDate(%q) ok = %v, want %v", in, ok, want)
		}
	}
}

func TestParseDateWithExtra_REEUraniumLayout(t *testing.T) {
	_, ok := ParseDateWithExtra("15-Mar-2026", "02-Jan-2006")
	if !ok {
		t.Errorf("expected DD-MMM-YYYY layout to parse with extra cascade")
	}
}

func TestAsFloat(t *testing.T) {
	if f, ok := AsFloat("3.14"); !ok || f != 3.14 {
		t.Errorf("AsFloat(\"3.14\") = %v, %v", f, ok)
	}
	if _, ok := AsFloat("not a number"); ok {
		t.Errorf("expected AsFloat to fail on non-numeric string")
	}
	if _, ok := AsFloat(nil); ok {
		t.Errorf("expected AsFloat to fail on nil")
	}
}

func TestSourceEventID_ExplicitWins(t *testing.T) {
	if got := SourceEventID("EXPLICIT-1", "tx_rrc", "seed"); got != "EXPLICIT-1" {
		t.Errorf("expected explicit id to win, got %q", got)
	}
}

func TestSourceEventID_Deterministic(t *testing.T) {
	a := SourceEventID("", "tx_rrc", "42-301-00001|permit_filed")
	b := SourceEventID("", "tx_rrc", "42-301-00001|permit_filed")
	if a != b {
		t.Errorf("expected deterministic id, got %q != %q", a, b)
	}
}
