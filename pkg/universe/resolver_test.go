package universe

import "testing"

func testUniverse() Universe {
	return Universe{
		Version: 1,
		Companies: []Company{
			{CompanyID: "C1", Name: "Permian Resources Corp", Aliases: []string{"Permian Resources"}, Tickers: []string{"PR"}},
			{CompanyID: "C2", Name: "Contango Ore", Tickers: []string{"CTGO"}},
		},
	}
}

func TestResolve_AliasMatch(t *testing.T) {
	u := testUniverse()
	r := Resolve(u, "permian resources", "")
	if r.Method != "alias" || r.CompanyID != "C1" || r.Confidence != 0.95 {
		t.Errorf("expected alias match on C1, got %+v", r)
	}
}

func TestResolve_OperatorFallbackOrder(t *testing.T) {
	u := testUniverse()
	r := Resolve(u, "", "Contango Ore")
	if r.Method != "alias" || r.CompanyID != "C2" {
		t.Errorf("expected operator to be tried when name misses, got %+v", r)
	}
}

func TestResolve_SingleCompanyFallback(t *testing.T) {
	u := Universe{Companies: []Company{{CompanyID: "ONLY", Tickers: []string{"X"}}}}
	r := Resolve(u, "nonexistent", "")
	if r.Method != "fallback" || r.CompanyID != "ONLY" || r.Confidence != 0.25 {
		t.Errorf("expected single-company fallback, got %+v", r)
	}
}

func TestResolve_None(t *testing.T) {
	u := testUniverse()
	r := Resolve(u, "totally unknown company", "")
	if r.Method != "none" || r.CompanyID != "" || r.Confidence != 0.0 {
		t.Errorf("expected no match, got %+v", r)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	u := testUniverse()
	r1 := Resolve(u, "Permian Resources Corp", "")
	r2 := Resolve(u, "Permian Resources Corp", "")
	if r1 != r2 {
		t.Errorf("expected resolve to be pure, got %+v != %+v", r1, r2)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Permian Resources, Corp.  ": "permian resources corp",
		"ACME-Oil & Gas":               "acme oil gas",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
