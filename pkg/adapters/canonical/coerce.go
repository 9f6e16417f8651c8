// Package canonical holds the coercion helpers every source adapter shares:
// date parsing cascade, numeric coercion, string cleaning, and the event
// record each adapter assembles before handing it to storage. Each adapter
// package still owns its own type-alias table, lineage formula and field
// list — this package only factors out the pieces that are byte-for-byte
// identical across all of them.
package canonical

import (
	"strconv"
	"strings"
	"time"

	"github.com/fieldsignal/convergence/pkg/hashing"
)

// HexSeed hashes seed with SHA-256 and returns the first n hex characters —
// the lineage-id formula several adapters share (Alaska permits/wells,
// REE/Uranium).
func HexSeed(seed string, n int) string {
	return hashing.TruncatedHash(seed, n)
}

// dateLayouts is the fallback cascade tried in order (spec §4.3 item 2).
// Precedence matters: an ambiguous "01-02-2026" is tried as ISO-8601 first,
// then the slash form, then the dash form, so a source that always emits
// one shape never misparses against another's layout.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
}

// ParseDate runs the shared cascade, returning the zero time and false when
// no layout matches — callers store a null event_time rather than erroring,
// per the InputMalformed recovery rule (spec §7).
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseDateWithExtra is ParseDate plus caller-supplied extra layouts tried
// after the shared cascade — REE/U's "02-Jan-2006" form being the one
// source-specific addition the spec calls out.
func ParseDateWithExtra(raw string, extra ...string) (time.Time, bool) {
	if t, ok := ParseDate(raw); ok {
		return t, ok
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range extra {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// AsFloat attempts a float conversion of an arbitrary payload value,
// returning (0, false) when the value isn't numeric or numeric-looking —
// callers store a null field on failure rather than erroring.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// CleanString trims a raw payload value to a string, returning "" for nil
// or non-string/non-stringable input.
func CleanString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case nil:
		return ""
	default:
		return ""
	}
}

// NormalizeKey lower-cases and trims a raw type/alias key before table
// lookup, so "Permit_Filed", " permit_filed ", and "permit_filed" all hit
// the same alias-table entry.
func NormalizeKey(v any) string {
	return strings.ToLower(CleanString(v))
}

// StringSlice coerces a payload value expected to be a string array,
// tolerating a single bare string (treated as a one-element slice) and
// dropping non-string elements.
func StringSlice(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
