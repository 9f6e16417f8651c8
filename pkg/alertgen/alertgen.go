// Package alertgen turns scored chain rows into graded, stably-identified
// alerts (spec §4.8): tiering by score, deterministic alert_id/canonical_doc_id
// derivation, and a compact human-readable summary line.
package alertgen

import (
	"fmt"
	"time"

	"github.com/fieldsignal/convergence/pkg/convergence"
	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/hashing"
)

// EventType is the fixed event_type every chain-progression alert carries.
const EventType = "chain_progression"

// TierForScore applies the tiering thresholds (spec §4.8): 0.8/0.5/0.3.
func TierForScore(score float64) event.Tier {
	switch {
	case score >= 0.8:
		return event.TierHigh
	case score >= 0.5:
		return event.TierMedium
	case score >= 0.3:
		return event.TierLow
	default:
		return event.TierNone
	}
}

// Build assembles an alert from a convergence-enriched chain row, returning
// (event.Alert{}, OutcomeBelowThreshold) when the row's score falls under the
// lowest tier rather than emitting a zero-tier alert. now is the ingest
// timestamp, and its UTC date seeds the alert_id; companyID, when non-empty,
// is attached to the alert.
func Build(row convergence.Result, companyID string, now time.Time) (event.Alert, event.Outcome) {
	tier := TierForScore(row.Score)
	if tier == event.TierNone {
		return event.Alert{}, event.OutcomeBelowThreshold
	}

	lastEventISO := ""
	if row.LastEventTime != nil {
		lastEventISO = event.FormatISOUTC(*row.LastEventTime)
	}

	canonicalDocID := hashing.ChainProgressionDocID(row.LineageID, lastEventISO)
	alertID := hashing.ChainProgressionAlertID(row.LineageID, now.UTC().Format("2006-01-02"))

	actor := row.Operator
	if actor == "" {
		actor = row.Company
	}
	if actor == "" {
		actor = "unknown"
	}

	identifier := row.PermitID
	if identifier == "" {
		identifier = row.LineageID
	}

	summary := fmt.Sprintf("[%s] chain progression %s (%s, %s) score=%v",
		upperTier(tier), identifier, actor, row.Region, row.Score)
	if row.ConvergenceScore >= 3 {
		summary += fmt.Sprintf(" convergence=%d %v", row.ConvergenceScore, row.ConvergenceCategories)
	}

	evidence := map[string]any{
		"lineage_id": row.LineageID,
		"permit_id":  row.PermitID,
		"operator":   row.Operator,
		"company":    row.Company,
		"region":     row.Region,
	}
	if lastEventISO != "" {
		evidence["last_event_time"] = lastEventISO
	}

	scoreSummary := map[string]any{
		"score":                    row.Score,
		"has_permit":               row.HasPermit,
		"has_spud":                 row.HasSpud,
		"has_well":                 row.HasWell,
		"has_production":           row.HasProduction,
		"has_claims":               row.HasClaims,
		"has_drill_assay":          row.HasDrillAssay,
		"has_resource":             row.HasResource,
		"has_study":                row.HasStudy,
		"has_deal":                 row.HasDeal,
		"has_policy":               row.HasPolicy,
		"has_insider_buy":          row.HasInsiderBuy,
		"has_insider_buy_cluster":  row.HasInsiderBuyCluster,
		"convergence_score":        row.ConvergenceScore,
		"convergence_categories":   row.ConvergenceCategories,
	}

	alert := event.Alert{
		AlertID:        alertID,
		Tier:           tier,
		EventType:      EventType,
		EventTime:      row.LastEventTime,
		IngestTime:     now,
		CanonicalDocID: canonicalDocID,
		EvidencePointer: evidence,
		ScoreSummary:   scoreSummary,
		Summary:        summary,
		Details: map[string]any{
			"field":     row.Field,
			"county":    row.County,
			"project":   row.Project,
			"commodity": row.Commodity,
			"tickers":   row.Tickers,
		},
	}
	if companyID != "" {
		alert.CompanyID = &companyID
	}
	return alert, event.OutcomeEmitted
}

// BuildSigned is Build followed by an optional evidence signature (spec
// SPEC_FULL §11.10). A nil signer leaves IntegritySignature empty and never
// fails.
func BuildSigned(row convergence.Result, companyID string, now time.Time, signer *Signer) (event.Alert, event.Outcome, error) {
	alert, outcome := Build(row, companyID, now)
	if outcome != event.OutcomeEmitted || signer == nil {
		return alert, outcome, nil
	}
	sig, err := signer.Sign(alert.CanonicalDocID, alert.EvidencePointer)
	if err != nil {
		return alert, outcome, err
	}
	alert.IntegritySignature = sig
	return alert, outcome, nil
}

// WithRegimeContext attaches regime-context labels (spec SPEC_FULL §12) to
// an already-built alert; a nil ctx leaves the alert unchanged.
func WithRegimeContext(alert event.Alert, ctx map[string]any) event.Alert {
	if ctx != nil {
		alert.RegimeContext = ctx
	}
	return alert
}

func upperTier(t event.Tier) string {
	switch t {
	case event.TierHigh:
		return "HIGH"
	case event.TierMedium:
		return "MEDIUM"
	case event.TierLow:
		return "LOW"
	default:
		return ""
	}
}
