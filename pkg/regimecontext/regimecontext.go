// Package regimecontext buckets a caller-supplied commodity/price snapshot
// into a small set of descriptive regime labels (e.g. "oil>70",
// "uranium-bull") attached to alerts as read-only context. It performs no
// fetching and no forecasting — a deterministic lookup over numbers the
// caller already has, not a predictive model.
package regimecontext

import "strings"

// Snapshot is the caller-supplied market state a regime is classified
// from. Zero-value fields are treated as "unknown" and contribute no
// label.
type Snapshot struct {
	OilPriceUSD     float64
	HasOilPrice     bool
	UraniumPriceUSD float64
	HasUraniumPrice bool
	UraniumTrend    string // "bull", "bear", "" (unknown)
}

// Thresholds are the bucket boundaries. The label strings Classify emits
// ("oil>70", "uranium<40", ...) are fixed and do not change with them.
type Thresholds struct {
	OilHighUSD     float64
	OilLowUSD      float64
	UraniumHighUSD float64
	UraniumLowUSD  float64
}

// DefaultThresholds are the stock thresholds used when none are supplied.
var DefaultThresholds = Thresholds{
	OilHighUSD:     70,
	OilLowUSD:      50,
	UraniumHighUSD: 80,
	UraniumLowUSD:  40,
}

// Classify buckets a snapshot into regime labels (spec SPEC_FULL §12).
// Multiple labels may apply (oil and uranium regimes are independent); none
// apply when the snapshot carries no usable field.
func Classify(snap Snapshot, thresholds Thresholds) []string {
	var labels []string

	if snap.HasOilPrice {
		switch {
		case snap.OilPriceUSD >= thresholds.OilHighUSD:
			labels = append(labels, "oil>70")
		case snap.OilPriceUSD <= thresholds.OilLowUSD:
			labels = append(labels, "oil<50")
		default:
			labels = append(labels, "oil-range")
		}
	}

	if snap.HasUraniumPrice {
		switch {
		case snap.UraniumPriceUSD >= thresholds.UraniumHighUSD:
			labels = append(labels, "uranium>80")
		case snap.UraniumPriceUSD <= thresholds.UraniumLowUSD:
			labels = append(labels, "uranium<40")
		default:
			labels = append(labels, "uranium-range")
		}
	}

	trend := strings.ToLower(strings.TrimSpace(snap.UraniumTrend))
	if trend == "bull" || trend == "bear" {
		labels = append(labels, "uranium-"+trend)
	}

	return labels
}

// Context builds the structured map attached to Alert.RegimeContext; nil
// when the snapshot yields no labels, matching the original's "no
// classification available" null.
func Context(snap Snapshot, thresholds Thresholds) map[string]any {
	labels := Classify(snap, thresholds)
	if len(labels) == 0 {
		return nil
	}
	return map[string]any{"labels": labels}
}
