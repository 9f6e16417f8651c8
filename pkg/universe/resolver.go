package universe

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lowerCaser = cases.Lower(language.Und)

// Normalize applies the entity-resolution normalization rule (spec §4.2):
// NFKD-fold (so "Petroleum Exploraçión" and "Petroleum Exploracion" compare
// equal), lower-case, non-alphanumerics replaced with spaces, whitespace
// collapsed. The NFKD fold is the one step beyond the original's ASCII-only
// cleanup — it makes the same policy hold for names carrying diacritics or
// non-Latin casing rules.
func Normalize(s string) string {
	folded := norm.NFKD.String(s)
	folded = lowerCaser.String(folded)

	var b strings.Builder
	b.Grow(len(folded))
	lastWasSpace := false
	for _, r := range folded {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining marks split off by the NFKD fold are dropped
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastWasSpace = false
		default:
			if !lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// ResolvedEntity is the outcome of a resolution attempt, including the
// confidence and method fields the contract requires preserving even when
// only CompanyID is consumed downstream.
type ResolvedEntity struct {
	CompanyID   string
	Tickers     []string
	MatchedName string
	Confidence  float64
	Method      string // "alias", "fallback", "none"
}

// aliasIndex maps a normalized name (canonical or alias) to a company_id.
func aliasIndex(u Universe) map[string]string {
	idx := make(map[string]string)
	for _, c := range u.Companies {
		if c.CompanyID == "" {
			continue
		}
		if c.Name != "" {
			idx[Normalize(c.Name)] = c.CompanyID
		}
		for _, a := range c.Aliases {
			if a != "" {
				idx[Normalize(a)] = c.CompanyID
			}
		}
	}
	return idx
}

// Resolve binds free-text name/operator mentions to a company identity
// (spec §4.2). It is pure: no network access, no learning, deterministic
// for a fixed universe.
//
// Lookup policy (first match wins; name is tried before operator):
//  1. Exact normalized match against a company's canonical name or alias →
//     method="alias", confidence=0.95.
//  2. Otherwise, if the universe has exactly one company, return it →
//     method="fallback", confidence=0.25.
//  3. Otherwise → method="none", confidence=0.0, CompanyID="".
func Resolve(u Universe, name, operator string) ResolvedEntity {
	idx := aliasIndex(u)

	for _, raw := range []string{name, operator} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		n := Normalize(raw)
		if companyID, ok := idx[n]; ok {
			return ResolvedEntity{
				CompanyID:   companyID,
				Tickers:     tickersFor(u, companyID),
				MatchedName: raw,
				Confidence:  0.95,
				Method:      "alias",
			}
		}
	}

	if len(u.Companies) == 1 {
		only := u.Companies[0]
		return ResolvedEntity{
			CompanyID:  only.CompanyID,
			Tickers:    append([]string(nil), only.Tickers...),
			Confidence: 0.25,
			Method:     "fallback",
		}
	}

	return ResolvedEntity{Method: "none"}
}

func tickersFor(u Universe, companyID string) []string {
	if c, ok := u.CompanyByID(companyID); ok {
		return append([]string(nil), c.Tickers...)
	}
	return nil
}
