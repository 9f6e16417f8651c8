package canonical

import "github.com/fieldsignal/convergence/pkg/universe"

// ResolveInto runs the entity resolver against payload's free-text company
// (falling back to operator) and, on a hit, fills in company_id/tickers
// when the payload doesn't already carry them — step 6 of the adapter
// canonicalization contract (spec §4.3). It never overwrites an
// already-set company_id.
func ResolveInto(u universe.Universe, payload map[string]any) universe.ResolvedEntity {
	company := CleanString(payload["company"])
	operator := CleanString(payload["operator"])

	resolved := universe.Resolve(u, company, operator)
	if resolved.CompanyID == "" {
		return resolved
	}
	if _, ok := payload["company_id"]; !ok || CleanString(payload["company_id"]) == "" {
		payload["company_id"] = resolved.CompanyID
		if len(resolved.Tickers) > 0 {
			payload["tickers"] = resolved.Tickers
		}
	}
	return resolved
}
